package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/infra/logger"
	"github.com/mstgnz/qualpay/qualpay"
	"github.com/mstgnz/qualpay/store"
)

// Configuration errors, surfaced before any network call is made.
var (
	// ErrCurrencyNotSupported is returned when the store's primary currency
	// is not USD. The gateway supports no other currency; this is a product
	// constraint, not a transient failure.
	ErrCurrencyNotSupported = errors.New("checkout: USD is not the primary store currency")

	// ErrStaleCard is returned when the submitted vaulted card id no longer
	// exists under the customer's vault record.
	ErrStaleCard = errors.New("checkout: selected card is no longer in the customer vault")

	// ErrGuestRecurring is returned when a guest tries to start a
	// subscription. Recurring billing requires a vault customer record.
	ErrGuestRecurring = errors.New("checkout: recurring billing requires a registered customer")

	// ErrRecurringDisabled is returned when recurring billing is not
	// enabled in the gateway settings.
	ErrRecurringDisabled = errors.New("checkout: recurring billing is not enabled")
)

// Gateway is the slice of the Qualpay client the processor drives.
// *qualpay.Client satisfies it; tests substitute a spy.
type Gateway interface {
	Authorize(ctx context.Context, req *qualpay.TransactionRequest) (*qualpay.TransactionResponse, error)
	Sale(ctx context.Context, req *qualpay.TransactionRequest) (*qualpay.TransactionResponse, error)
	Capture(ctx context.Context, req *qualpay.CaptureRequest) (*qualpay.TransactionResponse, error)
	Void(ctx context.Context, req *qualpay.VoidRequest) (*qualpay.TransactionResponse, error)
	Refund(ctx context.Context, req *qualpay.RefundRequest) (*qualpay.TransactionResponse, error)
	GetCustomer(ctx context.Context, customerID string) (*qualpay.VaultCustomer, error)
	CreateCustomer(ctx context.Context, req *qualpay.CreateCustomerRequest) (*qualpay.VaultCustomer, error)
	GetCustomerCards(ctx context.Context, customerID string) ([]qualpay.BillingCard, error)
	CreateCustomerCard(ctx context.Context, req *qualpay.BillingCardRequest) error
	CreateSubscription(ctx context.Context, req *qualpay.CreateSubscriptionRequest) (*qualpay.Subscription, error)
	CancelSubscription(ctx context.Context, customerID string, subscriptionID int64) (*qualpay.Subscription, error)
}

// SubscriptionStore persists the order-to-subscription link the webhook
// receiver correlates notifications through. *store.Store satisfies it.
type SubscriptionStore interface {
	SaveRecurringPayment(rec *store.RecurringPayment) error
	UpdateRecurringStatus(subscriptionID int64, status store.RecurringStatus) error
}

// Processor implements the host platform's payment-processing contract on
// top of the Qualpay client. It holds only read-only configuration and is
// safe for concurrent use.
type Processor struct {
	settings config.Settings
	gateway  Gateway
	validate *validator.Validate
	records  SubscriptionStore
}

// NewProcessor builds a processor. Settings are an explicit value; the
// processor never reads ambient state. A nil records store disables
// recurring bookkeeping, which breaks webhook correlation for
// subscriptions created through this processor.
func NewProcessor(settings config.Settings, gateway Gateway, validate *validator.Validate, records SubscriptionStore) *Processor {
	return &Processor{settings: settings, gateway: gateway, validate: validate, records: records}
}

// ProcessPayment handles a one-time payment: currency guard, line-item
// breakdown, card-source resolution, then an authorization or sale per the
// configured transaction type.
func (p *Processor) ProcessPayment(ctx context.Context, req *PaymentRequest) (*Result, error) {
	if !strings.EqualFold(req.PrimaryCurrency, "USD") {
		return nil, ErrCurrencyNotSupported
	}

	tran := &qualpay.TransactionRequest{
		PurchaseID:       truncate(req.OrderGUID, 25),
		Amount:           round2(req.OrderTotal),
		CurrencyISOCode:  qualpay.UsdNumericISOCode,
		TaxAmount:        round2(req.Cart.TaxAmount),
		Items:            p.buildLineItems(req.Cart, req.OrderTotal),
		SendEmailReceipt: req.Customer.Email != "",
		CustomerEmail:    req.Customer.Email,
	}

	if err := p.resolveCardSource(ctx, tran, req); err != nil {
		return nil, err
	}

	var (
		resp *qualpay.TransactionResponse
		err  error
	)
	switch p.settings.TransactionType {
	case config.TransactionAuthorization:
		resp, err = p.gateway.Authorize(ctx, tran)
	case config.TransactionSale:
		resp, err = p.gateway.Sale(ctx, tran)
	default:
		return nil, fmt.Errorf("checkout: unsupported transaction type %q", p.settings.TransactionType)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		AuthorizationCode: resp.AuthorizationCode,
		AvsResult:         resp.AvsResult,
		Cvv2Result:        resp.Cvv2Result,
		Message:           resp.Message,
	}
	if p.settings.TransactionType == config.TransactionAuthorization {
		result.AuthorizationTransactionID = resp.TransactionID
		result.NewPaymentStatus = StatusAuthorized
	} else {
		result.CaptureTransactionID = resp.TransactionID
		result.NewPaymentStatus = StatusPaid
	}

	// The card was tokenized during the charge; attach it to the vault
	// record. A vault failure does not fail the already-charged payment.
	if resp.CardID != "" && req.Card.SaveCard {
		if err := p.vaultCard(ctx, req.Customer, resp.CardID); err != nil {
			logger.Error("failed to vault tokenized card", err, logger.LogContext{
				Fields: map[string]any{"customer_id": req.Customer.ID},
			})
		}
	}

	return result, nil
}

// resolveCardSource sets exactly one card reference on the transaction, in
// priority order: a verified vaulted card, an Embedded Fields token, then
// raw card data (optionally tokenizing into the vault).
func (p *Processor) resolveCardSource(ctx context.Context, tran *qualpay.TransactionRequest, req *PaymentRequest) error {
	card := req.Card

	if card.BillingCardID != "" {
		// A stale id is a hard error, never silently ignored.
		cards, err := p.gateway.GetCustomerCards(ctx, req.Customer.ID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			if c.CardID == card.BillingCardID {
				tran.CardID = card.BillingCardID
				tran.CustomerID = req.Customer.ID
				return nil
			}
		}
		return ErrStaleCard
	}

	if p.settings.UseEmbeddedFields && card.TokenizedCardID != "" {
		tran.CardID = card.TokenizedCardID
		return nil
	}

	tran.CardholderName = card.CardholderName
	tran.CardNumber = card.CardNumber
	tran.ExpirationDate = fmt.Sprintf("%02d%02d", card.ExpireMonth, card.ExpireYear%100)
	tran.Cvv2 = card.Cvv2
	if billing := req.Customer.Billing; billing != nil {
		tran.AvsAddress = truncate(billing.Address1, 20)
		tran.AvsZip = billing.Zip
	}

	if !card.SaveCard || !p.settings.UseCustomerVault || req.Customer.Guest {
		return nil
	}

	// Tokenize during the charge and create the vault record in the same
	// call when the customer is not vaulted yet.
	tran.Tokenize = true
	vaulted, err := p.gateway.GetCustomer(ctx, req.Customer.ID)
	if err != nil {
		return err
	}
	if vaulted == nil {
		tran.CustomerID = req.Customer.ID
		tran.Customer = gatewayCustomer(req.Customer)
	}
	return nil
}

// vaultCard attaches an already-tokenized card to the customer's vault
// record, creating the record first when needed.
func (p *Processor) vaultCard(ctx context.Context, customer Customer, cardID string) error {
	if !p.settings.UseCustomerVault || customer.Guest {
		return nil
	}
	if err := p.ensureVaultCustomer(ctx, customer); err != nil {
		return err
	}
	card := &qualpay.BillingCardRequest{
		CustomerID: customer.ID,
		CardID:     cardID,
		Verify:     true,
	}
	if customer.Billing != nil {
		card.BillingZip = customer.Billing.Zip
	}
	return p.gateway.CreateCustomerCard(ctx, card)
}

// ensureVaultCustomer creates the vault customer record when it does not
// exist yet.
func (p *Processor) ensureVaultCustomer(ctx context.Context, customer Customer) error {
	vaulted, err := p.gateway.GetCustomer(ctx, customer.ID)
	if err != nil {
		return err
	}
	if vaulted != nil {
		return nil
	}
	_, err = p.gateway.CreateCustomer(ctx, &qualpay.CreateCustomerRequest{
		CustomerID: customer.ID,
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		Email:      customer.Email,
		Company:    customer.Company,
		Phone:      customer.Phone,
	})
	return err
}

// gatewayCustomer maps the host customer onto the gateway's vault payload.
func gatewayCustomer(customer Customer) *qualpay.GatewayCustomer {
	gc := &qualpay.GatewayCustomer{
		Email:     customer.Email,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Company:   customer.Company,
		Phone:     customer.Phone,
	}
	if billing := customer.Billing; billing != nil {
		gc.BillingAddress1 = billing.Address1
		gc.BillingAddress2 = billing.Address2
		gc.BillingCity = billing.City
		gc.BillingStateCode = billing.StateCode
		gc.BillingZip = billing.Zip
		gc.BillingCountry = billing.CountryCode
	}
	if shipping := customer.Shipping; shipping != nil {
		gc.ShippingAddresses = []qualpay.ShippingAddress{{
			FirstName:   shipping.FirstName,
			LastName:    shipping.LastName,
			Company:     shipping.Company,
			Address1:    shipping.Address1,
			Address2:    shipping.Address2,
			City:        shipping.City,
			StateCode:   shipping.StateCode,
			Zip:         shipping.Zip,
			CountryName: shipping.CountryCode,
		}}
	}
	return gc
}

// Capture captures the full amount of a previously authorized transaction.
func (p *Processor) Capture(ctx context.Context, transactionID string, orderTotal float64) (*Result, error) {
	resp, err := p.gateway.Capture(ctx, &qualpay.CaptureRequest{
		TransactionID: transactionID,
		Amount:        round2(orderTotal),
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		CaptureTransactionID: resp.TransactionID,
		Message:              resp.Message,
		NewPaymentStatus:     StatusPaid,
	}, nil
}

// RefundPayment refunds a captured transaction, fully or partially. The
// gateway enforces the refund ceiling, not this module.
func (p *Processor) RefundPayment(ctx context.Context, transactionID string, amount float64, partial bool) (*Result, error) {
	resp, err := p.gateway.Refund(ctx, &qualpay.RefundRequest{
		TransactionID: transactionID,
		Amount:        round2(amount),
	})
	if err != nil {
		return nil, err
	}
	status := StatusRefunded
	if partial {
		status = StatusPartiallyRefunded
	}
	return &Result{
		Message:          resp.Message,
		NewPaymentStatus: status,
	}, nil
}

// VoidPayment voids the full amount of an authorized transaction.
func (p *Processor) VoidPayment(ctx context.Context, transactionID string) (*Result, error) {
	resp, err := p.gateway.Void(ctx, &qualpay.VoidRequest{TransactionID: transactionID})
	if err != nil {
		return nil, err
	}
	return &Result{
		Message:          resp.Message,
		NewPaymentStatus: StatusVoided,
	}, nil
}
