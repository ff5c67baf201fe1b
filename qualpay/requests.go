package qualpay

import (
	"errors"
	"fmt"
	"net/http"
)

// requestSpec carries the fixed HTTP verb and path of an API operation.
// Every operation is plain data here; the transport selects the spec by
// request kind instead of dispatching on request types.
type requestSpec struct {
	method string
	path   string
}

type requestKind int

const (
	kindAuthorize requestKind = iota
	kindSale
	kindVerify
	kindCapture
	kindVoid
	kindRefund
	kindTokenize
	kindGetCustomer
	kindCreateCustomer
	kindGetCustomerCards
	kindCreateCustomerCard
	kindUpdateCustomerCard
	kindDeleteCustomerCard
	kindGetTransientKey
	kindGetWebhook
	kindCreateWebhook
	kindCreateSubscription
	kindCancelSubscription
	kindSubscriptionTransactions
)

// specFor resolves the request spec for an operation. The id argument fills
// the single path parameter of the templated operations and must already be
// URL-safe (Qualpay ids are numeric or opaque tokens, never user text).
func specFor(kind requestKind, id string) requestSpec {
	switch kind {
	case kindAuthorize:
		return requestSpec{http.MethodPost, "pg/auth"}
	case kindSale:
		return requestSpec{http.MethodPost, "pg/sale"}
	case kindVerify:
		return requestSpec{http.MethodPost, "pg/verify"}
	case kindCapture:
		return requestSpec{http.MethodPost, "pg/capture/" + id}
	case kindVoid:
		return requestSpec{http.MethodPost, "pg/void/" + id}
	case kindRefund:
		return requestSpec{http.MethodPost, "pg/refund/" + id}
	case kindTokenize:
		return requestSpec{http.MethodPost, "pg/tokenize"}
	case kindGetCustomer:
		return requestSpec{http.MethodGet, "platform/vault/customer/" + id}
	case kindCreateCustomer:
		return requestSpec{http.MethodPost, "platform/vault/customer"}
	case kindGetCustomerCards:
		return requestSpec{http.MethodGet, "platform/vault/customer/" + id + "/billing"}
	case kindCreateCustomerCard:
		return requestSpec{http.MethodPost, "platform/vault/customer/" + id + "/billing"}
	case kindUpdateCustomerCard:
		return requestSpec{http.MethodPut, "platform/vault/customer/" + id + "/billing"}
	case kindDeleteCustomerCard:
		return requestSpec{http.MethodPut, "platform/vault/customer/" + id + "/billing/delete"}
	case kindGetTransientKey:
		return requestSpec{http.MethodGet, "platform/embedded"}
	case kindGetWebhook:
		return requestSpec{http.MethodGet, "platform/webhook/" + id}
	case kindCreateWebhook:
		return requestSpec{http.MethodPost, "platform/webhook"}
	case kindCreateSubscription:
		return requestSpec{http.MethodPost, "platform/subscription"}
	case kindCancelSubscription:
		return requestSpec{http.MethodPost, "platform/subscription/" + id + "/cancel"}
	case kindSubscriptionTransactions:
		return requestSpec{http.MethodGet, "platform/subscription/transactions/" + id}
	}
	panic(fmt.Sprintf("qualpay: unknown request kind %d", kind))
}

// LineItem is a single purchase line reported with a transaction. Field
// limits (description 25, product code 12) are enforced by the caller; the
// gateway rejects the whole request on overflow.
type LineItem struct {
	Quantity    int        `json:"quantity"`
	Description string     `json:"description"`
	MeasureUnit string     `json:"unit_of_measure,omitempty"`
	ProductCode string     `json:"product_code,omitempty"`
	CreditType  CreditType `json:"debit_credit_ind"`
	UnitPrice   float64    `json:"unit_cost"`
}

// GatewayCustomer carries customer details sent with a tokenizing
// transaction so the vault record can be created in the same call.
type GatewayCustomer struct {
	Email             string            `json:"customer_email,omitempty"`
	FirstName         string            `json:"customer_first_name,omitempty"`
	LastName          string            `json:"customer_last_name,omitempty"`
	Company           string            `json:"customer_firm_name,omitempty"`
	Phone             string            `json:"customer_phone,omitempty"`
	BillingAddress1   string            `json:"billing_addr1,omitempty"`
	BillingAddress2   string            `json:"billing_addr2,omitempty"`
	BillingCity       string            `json:"billing_city,omitempty"`
	BillingStateCode  string            `json:"billing_state,omitempty"`
	BillingZip        string            `json:"billing_zip,omitempty"`
	BillingCountry    string            `json:"billing_country,omitempty"`
	ShippingAddresses []ShippingAddress `json:"shipping_addresses,omitempty"`
}

// ShippingAddress is a customer shipping address in a vault record.
type ShippingAddress struct {
	FirstName   string `json:"shipping_first_name,omitempty"`
	LastName    string `json:"shipping_last_name,omitempty"`
	Company     string `json:"shipping_firm_name,omitempty"`
	Address1    string `json:"shipping_addr1,omitempty"`
	Address2    string `json:"shipping_addr2,omitempty"`
	City        string `json:"shipping_city,omitempty"`
	StateCode   string `json:"shipping_state,omitempty"`
	Zip         string `json:"shipping_zip,omitempty"`
	CountryName string `json:"shipping_country,omitempty"`
}

// TransactionRequest starts an authorization, sale or verify. Exactly one
// card reference must be set: raw card data (CardNumber + ExpirationDate),
// a tokenized CardID, or a vaulted CustomerID + CardID pair.
type TransactionRequest struct {
	MerchantID  int64  `json:"merchant_id,omitempty"`
	DeveloperID string `json:"developer_id,omitempty"`

	PurchaseID      string     `json:"purchase_id,omitempty"`
	Amount          float64    `json:"amt_tran"`
	CurrencyISOCode int        `json:"tran_currency"`
	TaxAmount       float64    `json:"amt_tax,omitempty"`
	Items           []LineItem `json:"line_items,omitempty"`

	CardID           string `json:"card_id,omitempty"`
	CustomerID       string `json:"customer_id,omitempty"`
	CardNumber       string `json:"card_number,omitempty"`
	ExpirationDate   string `json:"exp_date,omitempty"` // MMYY
	Cvv2             string `json:"cvv2,omitempty"`
	CardholderName   string `json:"cardholder_name,omitempty"`
	AvsAddress       string `json:"avs_address,omitempty"`
	AvsZip           string `json:"avs_zip,omitempty"`
	Tokenize         bool   `json:"tokenize,omitempty"`
	SendEmailReceipt bool   `json:"email_receipt,omitempty"`
	CustomerEmail    string `json:"customer_email,omitempty"`

	Customer *GatewayCustomer `json:"customer,omitempty"`
}

// cardReference classifies the card source set on the request.
type cardReference int

const (
	cardRefNone cardReference = iota
	cardRefRaw
	cardRefToken
	cardRefVaulted
)

func (r *TransactionRequest) cardRef() (cardReference, error) {
	var refs []cardReference
	if r.CardNumber != "" {
		refs = append(refs, cardRefRaw)
	}
	if r.CardID != "" && r.CustomerID != "" {
		refs = append(refs, cardRefVaulted)
	} else if r.CardID != "" {
		refs = append(refs, cardRefToken)
	}
	switch len(refs) {
	case 0:
		return cardRefNone, errors.New("qualpay: no card reference set")
	case 1:
		return refs[0], nil
	default:
		return cardRefNone, errors.New("qualpay: more than one card reference set")
	}
}

// Validate checks the local invariants the gateway would reject anyway,
// before any network call is made.
func (r *TransactionRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("qualpay: transaction amount must be positive")
	}
	if len(r.PurchaseID) > 25 {
		return fmt.Errorf("qualpay: purchase id exceeds 25 characters: %q", r.PurchaseID)
	}
	if _, err := r.cardRef(); err != nil {
		return err
	}
	for _, item := range r.Items {
		if len(item.Description) > 25 {
			return fmt.Errorf("qualpay: line item description exceeds 25 characters: %q", item.Description)
		}
		if len(item.ProductCode) > 12 {
			return fmt.Errorf("qualpay: line item product code exceeds 12 characters: %q", item.ProductCode)
		}
	}
	return nil
}

// TokenizeRequest converts raw card data into a reusable card id.
type TokenizeRequest struct {
	MerchantID  int64  `json:"merchant_id,omitempty"`
	DeveloperID string `json:"developer_id,omitempty"`

	CardNumber     string `json:"card_number,omitempty"`
	ExpirationDate string `json:"exp_date,omitempty"`
	Cvv2           string `json:"cvv2,omitempty"`
	CardholderName string `json:"cardholder_name,omitempty"`
	AvsAddress     string `json:"avs_address,omitempty"`
	AvsZip         string `json:"avs_zip,omitempty"`
	SingleUse      bool   `json:"single_use,omitempty"`
}

// CaptureRequest captures a previously authorized transaction. The
// transaction id travels in the path, not the body.
type CaptureRequest struct {
	MerchantID  int64  `json:"merchant_id,omitempty"`
	DeveloperID string `json:"developer_id,omitempty"`

	TransactionID string  `json:"-"`
	Amount        float64 `json:"amt_tran"`
}

// VoidRequest voids a previously authorized transaction.
type VoidRequest struct {
	MerchantID  int64  `json:"merchant_id,omitempty"`
	DeveloperID string `json:"developer_id,omitempty"`

	TransactionID string `json:"-"`
}

// RefundRequest refunds a captured transaction, fully or partially. The
// gateway enforces that the sum of refunds never exceeds the captured
// amount; no local check is made.
type RefundRequest struct {
	MerchantID  int64  `json:"merchant_id,omitempty"`
	DeveloperID string `json:"developer_id,omitempty"`

	TransactionID string  `json:"-"`
	Amount        float64 `json:"amt_tran"`
}

// CreateCustomerRequest creates a customer record in the vault.
type CreateCustomerRequest struct {
	CustomerID        string            `json:"customer_id,omitempty"`
	FirstName         string            `json:"customer_first_name,omitempty"`
	LastName          string            `json:"customer_last_name,omitempty"`
	Email             string            `json:"customer_email,omitempty"`
	Company           string            `json:"customer_firm_name,omitempty"`
	Phone             string            `json:"customer_phone,omitempty"`
	BillingCards      []BillingCard     `json:"billing_cards,omitempty"`
	ShippingAddresses []ShippingAddress `json:"shipping_addresses,omitempty"`
}

// BillingCardRequest mutates a single billing card under a vault customer.
// CustomerID travels in the path.
type BillingCardRequest struct {
	CustomerID string `json:"-"`

	CardID           string   `json:"card_id,omitempty"`
	CardNumber       string   `json:"card_number,omitempty"`
	ExpirationDate   string   `json:"exp_date,omitempty"`
	Cvv2             string   `json:"cvv2,omitempty"`
	CardType         CardType `json:"card_type,omitempty"`
	BillingFirstName string   `json:"billing_first_name,omitempty"`
	BillingLastName  string   `json:"billing_last_name,omitempty"`
	BillingCompany   string   `json:"billing_firm_name,omitempty"`
	BillingAddress1  string   `json:"billing_addr1,omitempty"`
	BillingCity      string   `json:"billing_city,omitempty"`
	BillingStateCode string   `json:"billing_state,omitempty"`
	BillingZip       string   `json:"billing_zip,omitempty"`
	BillingCountry   string   `json:"billing_country,omitempty"`
	Verify           bool     `json:"verify,omitempty"`
	Primary          bool     `json:"primary,omitempty"`
}

// CreateWebhookRequest registers a webhook subscription. The platform
// responds with the per-merchant secret used to sign deliveries.
type CreateWebhookRequest struct {
	WebhookNode     string        `json:"webhook_node,omitempty"`
	Label           string        `json:"label,omitempty"`
	NotificationURL string        `json:"notification_url,omitempty"`
	EmailAddresses  []string      `json:"email_address,omitempty"`
	Status          WebhookStatus `json:"status,omitempty"`
	Events          []string      `json:"events,omitempty"`
}

// CreateSubscriptionRequest starts a recurring billing subscription.
type CreateSubscriptionRequest struct {
	MerchantID int64  `json:"merchant_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`

	CustomerFirstName string             `json:"customer_first_name,omitempty"`
	CustomerLastName  string             `json:"customer_last_name,omitempty"`
	DateStart         string             `json:"date_start,omitempty"` // YYYY-MM-DD
	PlanDescription   string             `json:"plan_desc,omitempty"`
	PlanFrequency     *PlanFrequency     `json:"plan_frequency,omitempty"`
	PlanDuration      int                `json:"plan_duration"`
	Interval          int                `json:"interval,omitempty"`
	SetupAmount       float64            `json:"amt_setup,omitempty"`
	RecurringAmount   float64            `json:"recur_amt,omitempty"`
	CurrencyISOCode   int                `json:"tran_currency,omitempty"`
	OnPlan            bool               `json:"subscription_on_plan"`
	Status            SubscriptionStatus `json:"status,omitempty"`
}
