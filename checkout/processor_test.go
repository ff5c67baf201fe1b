package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/qualpay"
)

// spyGateway records every call the processor makes and plays back canned
// responses.
type spyGateway struct {
	authorizeReq *qualpay.TransactionRequest
	saleReq      *qualpay.TransactionRequest
	captureReq   *qualpay.CaptureRequest
	voidReq      *qualpay.VoidRequest
	refundReq    *qualpay.RefundRequest

	tranResp *qualpay.TransactionResponse
	tranErr  error

	customer     *qualpay.VaultCustomer
	customerErr  error
	cards        []qualpay.BillingCard
	cardsErr     error
	createdCust  *qualpay.CreateCustomerRequest
	createdCard  *qualpay.BillingCardRequest
	subscription *qualpay.Subscription
	subReq       *qualpay.CreateSubscriptionRequest
	cancelledID  int64

	calls []string
}

func (s *spyGateway) record(name string) { s.calls = append(s.calls, name) }

func (s *spyGateway) Authorize(_ context.Context, req *qualpay.TransactionRequest) (*qualpay.TransactionResponse, error) {
	s.record("authorize")
	s.authorizeReq = req
	return s.tranResp, s.tranErr
}

func (s *spyGateway) Sale(_ context.Context, req *qualpay.TransactionRequest) (*qualpay.TransactionResponse, error) {
	s.record("sale")
	s.saleReq = req
	return s.tranResp, s.tranErr
}

func (s *spyGateway) Capture(_ context.Context, req *qualpay.CaptureRequest) (*qualpay.TransactionResponse, error) {
	s.record("capture")
	s.captureReq = req
	return s.tranResp, s.tranErr
}

func (s *spyGateway) Void(_ context.Context, req *qualpay.VoidRequest) (*qualpay.TransactionResponse, error) {
	s.record("void")
	s.voidReq = req
	return s.tranResp, s.tranErr
}

func (s *spyGateway) Refund(_ context.Context, req *qualpay.RefundRequest) (*qualpay.TransactionResponse, error) {
	s.record("refund")
	s.refundReq = req
	return s.tranResp, s.tranErr
}

func (s *spyGateway) GetCustomer(_ context.Context, _ string) (*qualpay.VaultCustomer, error) {
	s.record("get_customer")
	return s.customer, s.customerErr
}

func (s *spyGateway) CreateCustomer(_ context.Context, req *qualpay.CreateCustomerRequest) (*qualpay.VaultCustomer, error) {
	s.record("create_customer")
	s.createdCust = req
	return &qualpay.VaultCustomer{CustomerID: req.CustomerID}, nil
}

func (s *spyGateway) GetCustomerCards(_ context.Context, _ string) ([]qualpay.BillingCard, error) {
	s.record("get_customer_cards")
	return s.cards, s.cardsErr
}

func (s *spyGateway) CreateCustomerCard(_ context.Context, req *qualpay.BillingCardRequest) error {
	s.record("create_customer_card")
	s.createdCard = req
	return nil
}

func (s *spyGateway) CreateSubscription(_ context.Context, req *qualpay.CreateSubscriptionRequest) (*qualpay.Subscription, error) {
	s.record("create_subscription")
	s.subReq = req
	return s.subscription, nil
}

func (s *spyGateway) CancelSubscription(_ context.Context, _ string, subscriptionID int64) (*qualpay.Subscription, error) {
	s.record("cancel_subscription")
	s.cancelledID = subscriptionID
	return &qualpay.Subscription{SubscriptionID: subscriptionID, Status: qualpay.SubscriptionCancelled}, nil
}

func approvedResponse() *qualpay.TransactionResponse {
	resp := &qualpay.TransactionResponse{
		TransactionID:     "pg-111",
		AuthorizationCode: "T12345",
		AvsResult:         "Y",
		Cvv2Result:        "M",
	}
	resp.Code = qualpay.GatewayCodeSuccess
	resp.Message = "Success"
	return resp
}

func basePaymentRequest() *PaymentRequest {
	return &PaymentRequest{
		OrderGUID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		PrimaryCurrency: "USD",
		OrderTotal:      100,
		Customer: Customer{
			ID:        "cust-1",
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			Billing: &Address{
				Address1: "35 Main Street, Building 4, Suite 100",
				Zip:      "92101",
			},
		},
		Cart: Cart{
			Lines: []CartLine{{Name: "Widget", SKU: "WID-1", Quantity: 1, UnitPrice: 100}},
		},
		Card: CardInput{
			CardholderName: "Jane Doe",
			CardNumber:     "4111111111111111",
			ExpireMonth:    4,
			ExpireYear:     2030,
			Cvv2:           "123",
		},
	}
}

func TestProcessPayment_RejectsNonUSD(t *testing.T) {
	spy := &spyGateway{}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	req := basePaymentRequest()
	req.PrimaryCurrency = "EUR"

	_, err := p.ProcessPayment(context.Background(), req)
	if !errors.Is(err, ErrCurrencyNotSupported) {
		t.Fatalf("err = %v, want ErrCurrencyNotSupported", err)
	}
	if len(spy.calls) != 0 {
		t.Errorf("gateway must not be called, got %v", spy.calls)
	}
}

func TestProcessPayment_Sale(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	result, err := p.ProcessPayment(context.Background(), basePaymentRequest())
	if err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	if result.NewPaymentStatus != StatusPaid {
		t.Errorf("status = %q, want %q", result.NewPaymentStatus, StatusPaid)
	}
	if result.CaptureTransactionID != "pg-111" {
		t.Errorf("capture transaction id = %q", result.CaptureTransactionID)
	}
	if result.AuthorizationTransactionID != "" {
		t.Error("a sale must not set the authorization transaction id")
	}

	tran := spy.saleReq
	if tran == nil {
		t.Fatal("sale was not called")
	}
	if tran.PurchaseID != "7c9e6679-7425-40de-944b-e" {
		t.Errorf("purchase id = %q, want 25-char prefix of the order guid", tran.PurchaseID)
	}
	if tran.CurrencyISOCode != qualpay.UsdNumericISOCode {
		t.Errorf("currency = %d, want %d", tran.CurrencyISOCode, qualpay.UsdNumericISOCode)
	}
	if tran.ExpirationDate != "0430" {
		t.Errorf("expiration date = %q, want 0430", tran.ExpirationDate)
	}
	if tran.AvsAddress != "35 Main Street, Buil" {
		t.Errorf("avs address = %q, want the 20-char street prefix", tran.AvsAddress)
	}
	if tran.AvsZip != "92101" {
		t.Errorf("avs zip = %q", tran.AvsZip)
	}
	if !tran.SendEmailReceipt || tran.CustomerEmail != "jane@example.com" {
		t.Errorf("receipt fields = %v %q", tran.SendEmailReceipt, tran.CustomerEmail)
	}
}

func TestProcessPayment_Authorize(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionAuthorization}, spy, nil, nil)

	result, err := p.ProcessPayment(context.Background(), basePaymentRequest())
	if err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	if spy.authorizeReq == nil {
		t.Fatal("authorize was not called")
	}
	if result.NewPaymentStatus != StatusAuthorized {
		t.Errorf("status = %q, want %q", result.NewPaymentStatus, StatusAuthorized)
	}
	if result.AuthorizationTransactionID != "pg-111" || result.CaptureTransactionID != "" {
		t.Errorf("transaction ids = %q / %q", result.AuthorizationTransactionID, result.CaptureTransactionID)
	}
}

func TestProcessPayment_VaultedCard(t *testing.T) {
	spy := &spyGateway{
		tranResp: approvedResponse(),
		cards:    []qualpay.BillingCard{{CardID: "card-9"}},
	}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card = CardInput{BillingCardID: "card-9"}

	if _, err := p.ProcessPayment(context.Background(), req); err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	tran := spy.saleReq
	if tran.CardID != "card-9" || tran.CustomerID != "cust-1" {
		t.Errorf("card reference = %q / %q", tran.CardID, tran.CustomerID)
	}
	if tran.CardNumber != "" {
		t.Error("raw card data must not be sent for a vaulted card")
	}
}

func TestProcessPayment_StaleVaultedCard(t *testing.T) {
	spy := &spyGateway{
		cards: []qualpay.BillingCard{{CardID: "card-other"}},
	}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card = CardInput{BillingCardID: "card-9"}

	_, err := p.ProcessPayment(context.Background(), req)
	if !errors.Is(err, ErrStaleCard) {
		t.Fatalf("err = %v, want ErrStaleCard", err)
	}
	if spy.saleReq != nil || spy.authorizeReq != nil {
		t.Error("no charge may be attempted against a stale card")
	}
}

func TestProcessPayment_EmbeddedFieldsToken(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{
		TransactionType:   config.TransactionSale,
		UseEmbeddedFields: true,
	}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card = CardInput{TokenizedCardID: "tok-77"}

	if _, err := p.ProcessPayment(context.Background(), req); err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	if spy.saleReq.CardID != "tok-77" {
		t.Errorf("card id = %q, want tok-77", spy.saleReq.CardID)
	}
}

func TestProcessPayment_TokenIgnoredWhenEmbeddedFieldsOff(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card.TokenizedCardID = "tok-77"

	if _, err := p.ProcessPayment(context.Background(), req); err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	if spy.saleReq.CardID != "" {
		t.Errorf("card id = %q, want raw card data instead", spy.saleReq.CardID)
	}
	if spy.saleReq.CardNumber != "4111111111111111" {
		t.Errorf("card number = %q", spy.saleReq.CardNumber)
	}
}

func TestProcessPayment_SaveCardTokenizes(t *testing.T) {
	resp := approvedResponse()
	resp.CardID = "card-new"
	spy := &spyGateway{tranResp: resp}
	p := NewProcessor(config.Settings{
		TransactionType:  config.TransactionSale,
		UseCustomerVault: true,
	}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card.SaveCard = true

	if _, err := p.ProcessPayment(context.Background(), req); err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	tran := spy.saleReq
	if !tran.Tokenize {
		t.Error("tokenize must be requested when saving the card")
	}
	// The customer is not vaulted yet, so the charge carries the vault
	// record inline.
	if tran.CustomerID != "cust-1" || tran.Customer == nil {
		t.Fatalf("inline customer = %q / %v", tran.CustomerID, tran.Customer)
	}
	if tran.Customer.BillingZip != "92101" {
		t.Errorf("billing zip = %q", tran.Customer.BillingZip)
	}

	// After the charge, the tokenized card is attached to the vault.
	if spy.createdCard == nil {
		t.Fatal("expected the tokenized card to be vaulted")
	}
	if spy.createdCard.CardID != "card-new" || !spy.createdCard.Verify {
		t.Errorf("vaulted card = %+v", spy.createdCard)
	}
}

func TestProcessPayment_GuestNeverVaults(t *testing.T) {
	resp := approvedResponse()
	resp.CardID = "card-new"
	spy := &spyGateway{tranResp: resp}
	p := NewProcessor(config.Settings{
		TransactionType:  config.TransactionSale,
		UseCustomerVault: true,
	}, spy, nil, nil)

	req := basePaymentRequest()
	req.Card.SaveCard = true
	req.Customer.Guest = true

	if _, err := p.ProcessPayment(context.Background(), req); err != nil {
		t.Fatalf("ProcessPayment() error: %v", err)
	}

	if spy.saleReq.Tokenize {
		t.Error("guest checkout must not tokenize into the vault")
	}
	if spy.createdCard != nil {
		t.Error("guest checkout must not create a vault card")
	}
}

func TestProcessPayment_GatewayDecline(t *testing.T) {
	spy := &spyGateway{tranErr: &qualpay.GatewayError{}}
	p := NewProcessor(config.Settings{TransactionType: config.TransactionSale}, spy, nil, nil)

	_, err := p.ProcessPayment(context.Background(), basePaymentRequest())
	var gwErr *qualpay.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want *qualpay.GatewayError", err)
	}
}

func TestCapture(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{}, spy, nil, nil)

	result, err := p.Capture(context.Background(), "pg-111", 49.999)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if spy.captureReq.TransactionID != "pg-111" || spy.captureReq.Amount != 50 {
		t.Errorf("capture request = %+v", spy.captureReq)
	}
	if result.NewPaymentStatus != StatusPaid {
		t.Errorf("status = %q, want %q", result.NewPaymentStatus, StatusPaid)
	}
}

func TestRefundPayment(t *testing.T) {
	tests := []struct {
		name    string
		partial bool
		want    PaymentStatus
	}{
		{"full", false, StatusRefunded},
		{"partial", true, StatusPartiallyRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyGateway{tranResp: approvedResponse()}
			p := NewProcessor(config.Settings{}, spy, nil, nil)

			result, err := p.RefundPayment(context.Background(), "pg-111", 25, tt.partial)
			if err != nil {
				t.Fatalf("RefundPayment() error: %v", err)
			}
			if result.NewPaymentStatus != tt.want {
				t.Errorf("status = %q, want %q", result.NewPaymentStatus, tt.want)
			}
			if spy.refundReq.Amount != 25 {
				t.Errorf("refund amount = %v", spy.refundReq.Amount)
			}
		})
	}
}

func TestVoidPayment(t *testing.T) {
	spy := &spyGateway{tranResp: approvedResponse()}
	p := NewProcessor(config.Settings{}, spy, nil, nil)

	result, err := p.VoidPayment(context.Background(), "pg-111")
	if err != nil {
		t.Fatalf("VoidPayment() error: %v", err)
	}
	if spy.voidReq.TransactionID != "pg-111" {
		t.Errorf("void request = %+v", spy.voidReq)
	}
	if result.NewPaymentStatus != StatusVoided {
		t.Errorf("status = %q, want %q", result.NewPaymentStatus, StatusVoided)
	}
}
