package qualpay

import (
	"encoding/json"
	"fmt"
)

// GatewayCode is a Qualpay Payment Gateway response code. The gateway uses
// three-digit string codes; "000" is the only success value.
type GatewayCode string

const (
	GatewayCodeSuccess               GatewayCode = "000"
	GatewayCodeBadRequest            GatewayCode = "100"
	GatewayCodeInvalidCredentials    GatewayCode = "101"
	GatewayCodeInvalidTransactionID  GatewayCode = "102"
	GatewayCodeMissingCardholderData GatewayCode = "103"
	GatewayCodeInvalidAmount         GatewayCode = "104"
	GatewayCodeMissingAuthCode       GatewayCode = "105"
	GatewayCodeInvalidAvsData        GatewayCode = "106"
	GatewayCodeInvalidExpirationDate GatewayCode = "107"
	GatewayCodeInvalidCardNumber     GatewayCode = "108"
	GatewayCodeFieldLengthFailed     GatewayCode = "109"
	GatewayCodeDynamicDbaNotAllowed  GatewayCode = "110"
	GatewayCodeCreditsNotAllowed     GatewayCode = "111"
	GatewayCodeInvalidCustomerData   GatewayCode = "112"
	GatewayCodeVoidFailed            GatewayCode = "401"
	GatewayCodeRefundFailed          GatewayCode = "402"
	GatewayCodeCaptureFailed         GatewayCode = "403"
	GatewayCodeBatchCloseFailed      GatewayCode = "404"
	GatewayCodeTokenizationFailed    GatewayCode = "405"
	GatewayCodeTimeout               GatewayCode = "998"
	GatewayCodeInternalError         GatewayCode = "999"
)

// Success reports whether the code is the gateway success value.
func (c GatewayCode) Success() bool { return c == GatewayCodeSuccess }

// PlatformCode is a Qualpay Platform API response code. The Platform API uses
// small integers; 0 is the only success value. This enumeration space is
// independent from GatewayCode and the two must never be conflated.
type PlatformCode int

const (
	PlatformCodeSuccess            PlatformCode = 0
	PlatformCodeBadRequest         PlatformCode = 2
	PlatformCodeInvalidCredentials PlatformCode = 6
	PlatformCodeResourceNotExists  PlatformCode = 7
	PlatformCodeUnauthorized       PlatformCode = 11
	PlatformCodeInternalError      PlatformCode = 99
)

// Success reports whether the code is the platform success value.
func (c PlatformCode) Success() bool { return c == PlatformCodeSuccess }

// NotFound reports whether the code means the requested resource does not
// exist. Vault lookups treat this as a normal empty result, not an error.
func (c PlatformCode) NotFound() bool { return c == PlatformCodeResourceNotExists }

// CardType identifies a card brand using Qualpay's two-letter tokens.
type CardType string

const (
	CardTypeVisa            CardType = "VS"
	CardTypeMasterCard      CardType = "MC"
	CardTypePayPal          CardType = "PP"
	CardTypeDiscover        CardType = "DS"
	CardTypeAmericanExpress CardType = "AM"
)

// SubscriptionStatus is a recurring billing subscription state. The wire
// tokens are single letters defined by Qualpay.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "A"
	SubscriptionComplete  SubscriptionStatus = "D"
	SubscriptionPaused    SubscriptionStatus = "P"
	SubscriptionCancelled SubscriptionStatus = "C"
	SubscriptionSuspended SubscriptionStatus = "S"
)

// TransactionStatus is the settlement state of a gateway transaction.
type TransactionStatus string

const (
	TransactionApproved    TransactionStatus = "A"
	TransactionHeld        TransactionStatus = "H"
	TransactionCaptured    TransactionStatus = "C"
	TransactionVoided      TransactionStatus = "V"
	TransactionCancelled   TransactionStatus = "K"
	TransactionDeclined    TransactionStatus = "D"
	TransactionFailed      TransactionStatus = "F"
	TransactionSettled     TransactionStatus = "S"
	TransactionDepositSent TransactionStatus = "P"
	TransactionNotFunded   TransactionStatus = "N"
	TransactionRejected    TransactionStatus = "R"
)

// Failed reports whether the transaction outcome is a terminal failure.
func (s TransactionStatus) Failed() bool {
	return s == TransactionDeclined || s == TransactionFailed || s == TransactionRejected
}

// PlanFrequency is a recurring billing plan frequency. Qualpay encodes
// frequencies as fixed small integers; note the gap at 2.
type PlanFrequency int

const (
	FrequencyWeekly     PlanFrequency = 0
	FrequencyBiWeekly   PlanFrequency = 1
	FrequencyMonthly    PlanFrequency = 3
	FrequencyQuarterly  PlanFrequency = 4
	FrequencyBiAnnually PlanFrequency = 5
	FrequencyAnnually   PlanFrequency = 6
)

var planFrequencyNames = map[PlanFrequency]string{
	FrequencyWeekly:     "weekly",
	FrequencyBiWeekly:   "biweekly",
	FrequencyMonthly:    "monthly",
	FrequencyQuarterly:  "quarterly",
	FrequencyBiAnnually: "biannually",
	FrequencyAnnually:   "annually",
}

func (f PlanFrequency) String() string {
	if name, ok := planFrequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("frequency(%d)", int(f))
}

// CreditType is the debit/credit indicator of a line item.
type CreditType string

const (
	CreditTypeDebit  CreditType = "D"
	CreditTypeCredit CreditType = "C"
)

// WebhookStatus is the state of a registered webhook subscription.
type WebhookStatus string

const (
	WebhookActive    WebhookStatus = "Active"
	WebhookDisabled  WebhookStatus = "Disabled"
	WebhookSuspended WebhookStatus = "Suspended"
)

// Webhook event names reported by the Platform API.
const (
	EventSubscriptionSuspended      = "subscription_suspended"
	EventSubscriptionComplete       = "subscription_complete"
	EventSubscriptionPaymentSuccess = "subscription_payment_success"
	EventSubscriptionPaymentFailure = "subscription_payment_failure"
	EventValidateURL                = "validate_url"
)

// UnmarshalJSON accepts both the documented string form ("000") and the bare
// numeric form (0) the gateway has been seen returning for some errors.
func (c *GatewayCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = GatewayCode(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("gateway code: %w", err)
	}
	*c = GatewayCode(fmt.Sprintf("%03d", n))
	return nil
}
