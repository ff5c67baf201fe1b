package qualpay

import "encoding/json"

// GatewayResponse is the envelope of every Payment Gateway (pg/...) reply.
type GatewayResponse struct {
	Code    GatewayCode `json:"rcode"`
	Message string      `json:"rmsg"`
}

// TransactionResponse is the reply to auth, sale, verify, capture, void and
// refund requests.
type TransactionResponse struct {
	GatewayResponse

	TransactionID      string `json:"pg_id,omitempty"`
	AuthorizationCode  string `json:"auth_code,omitempty"`
	AvsResult          string `json:"auth_avs_result,omitempty"`
	Cvv2Result         string `json:"auth_cvv2_result,omitempty"`
	CardID             string `json:"card_id,omitempty"`
	MerchantAdviceCode string `json:"merchant_advice_code,omitempty"`
}

// TokenizeResponse is the reply to pg/tokenize.
type TokenizeResponse struct {
	GatewayResponse

	CardID     string `json:"card_id,omitempty"`
	CardNumber string `json:"card_number,omitempty"` // masked
}

// PlatformResponse is the envelope of every Platform (platform/...) reply.
// Data is decoded separately per operation.
type PlatformResponse struct {
	Code    PlatformCode    `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// BillingCard is a tokenized card stored under a vault customer. At most one
// card per customer carries the primary flag.
type BillingCard struct {
	CardID           string   `json:"card_id,omitempty"`
	CardNumber       string   `json:"card_number,omitempty"` // masked
	ExpirationDate   string   `json:"exp_date,omitempty"`
	CardType         CardType `json:"card_type,omitempty"`
	BillingFirstName string   `json:"billing_first_name,omitempty"`
	BillingLastName  string   `json:"billing_last_name,omitempty"`
	BillingZip       string   `json:"billing_zip,omitempty"`
	Verified         bool     `json:"verified,omitempty"`
	Primary          bool     `json:"primary,omitempty"`
}

// VaultCustomer is a customer record in the Qualpay vault.
type VaultCustomer struct {
	CustomerID        string            `json:"customer_id,omitempty"`
	FirstName         string            `json:"customer_first_name,omitempty"`
	LastName          string            `json:"customer_last_name,omitempty"`
	Email             string            `json:"customer_email,omitempty"`
	Company           string            `json:"customer_firm_name,omitempty"`
	Phone             string            `json:"customer_phone,omitempty"`
	BillingCards      []BillingCard     `json:"billing_cards,omitempty"`
	ShippingAddresses []ShippingAddress `json:"shipping_addresses,omitempty"`
}

// PrimaryCard returns the customer's primary billing card, or nil.
func (c *VaultCustomer) PrimaryCard() *BillingCard {
	for i := range c.BillingCards {
		if c.BillingCards[i].Primary {
			return &c.BillingCards[i]
		}
	}
	return nil
}

// Card returns the billing card with the given id, or nil.
func (c *VaultCustomer) Card(cardID string) *BillingCard {
	for i := range c.BillingCards {
		if c.BillingCards[i].CardID == cardID {
			return &c.BillingCards[i]
		}
	}
	return nil
}

// Webhook is a registered webhook subscription.
type Webhook struct {
	WebhookID       int64         `json:"webhook_id,omitempty"`
	WebhookNode     string        `json:"webhook_node,omitempty"`
	Label           string        `json:"label,omitempty"`
	NotificationURL string        `json:"notification_url,omitempty"`
	EmailAddresses  []string      `json:"email_address,omitempty"`
	Secret          string        `json:"secret,omitempty"`
	Status          WebhookStatus `json:"status,omitempty"`
	Events          []string      `json:"events,omitempty"`
}

// Subscription is a recurring billing schedule tracked gateway-side.
type Subscription struct {
	SubscriptionID    int64              `json:"subscription_id,omitempty"`
	MerchantID        int64              `json:"merchant_id,omitempty"`
	CustomerID        string             `json:"customer_id,omitempty"`
	CustomerFirstName string             `json:"customer_first_name,omitempty"`
	CustomerLastName  string             `json:"customer_last_name,omitempty"`
	DateStart         string             `json:"date_start,omitempty"`
	DateNext          string             `json:"date_next,omitempty"`
	DateEnd           string             `json:"date_end,omitempty"`
	PlanDescription   string             `json:"plan_desc,omitempty"`
	PlanFrequency     *PlanFrequency     `json:"plan_frequency,omitempty"`
	PlanDuration      int                `json:"plan_duration,omitempty"`
	Interval          int                `json:"interval,omitempty"`
	SetupAmount       float64            `json:"amt_setup,omitempty"`
	RecurringAmount   float64            `json:"recur_amt,omitempty"`
	CurrencyISOCode   int                `json:"tran_currency,omitempty"`
	Status            SubscriptionStatus `json:"status,omitempty"`

	// Response to the setup-amount charge booked with subscription creation.
	TransactionResponse *TransactionResponse `json:"response,omitempty"`
}

// SubscriptionTransaction is one charge attempt made under a subscription,
// newest first in the Platform listing.
type SubscriptionTransaction struct {
	TransactionID     string            `json:"pg_id,omitempty"`
	AuthorizationCode string            `json:"auth_code,omitempty"`
	Amount            float64           `json:"amt_tran,omitempty"`
	Date              string            `json:"tran_date,omitempty"`
	Status            TransactionStatus `json:"tran_status,omitempty"`
}

// EmbeddedKey is a transient key for Qualpay Embedded Fields, used for
// client-side tokenization before the card data ever reaches this module.
type EmbeddedKey struct {
	TransientKey   string `json:"transient_key,omitempty"`
	MerchantID     int64  `json:"merchant_id,omitempty"`
	Timestamp      string `json:"db_timestamp,omitempty"`
	ExpirationTime string `json:"expiry_time,omitempty"`
}

// WebhookEvent is the envelope of an inbound webhook delivery. Payloads are
// decoded per event after signature validation.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
