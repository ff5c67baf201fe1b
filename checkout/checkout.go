package checkout

// Types consumed from the host platform. The host's order, customer, cart,
// tax and currency services are opaque data sources; the processor only
// sees the snapshots below.

// Address is a billing or shipping address snapshot.
type Address struct {
	FirstName   string
	LastName    string
	Company     string
	Address1    string
	Address2    string
	City        string
	StateCode   string
	CountryCode string // three-letter ISO
	Zip         string
	Email       string
	Phone       string
}

// Customer is the host customer placing the order. Guest customers cannot
// use the vault or recurring billing.
type Customer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
	Guest     bool
	Billing   *Address
	Shipping  *Address
}

// CartLine is one product line of the shopping cart. UnitPrice excludes tax.
type CartLine struct {
	Name      string
	SKU       string
	Quantity  int
	UnitPrice float64
}

// AttributeCharge is a checkout-attribute charge (gift wrap, insurance...).
type AttributeCharge struct {
	Name   string
	Amount float64
}

// Cart is the shopping cart snapshot at payment time.
type Cart struct {
	Lines            []CartLine
	Attributes       []AttributeCharge
	ShippingAmount   float64
	TaxAmount        float64
	RequiresShipping bool
}

// CardInput is the card reference submitted at checkout. At most one of
// BillingCardID (a vaulted card) and TokenizedCardID (an Embedded Fields
// token) may be set; otherwise the raw card fields are used.
type CardInput struct {
	CardholderName  string
	CardNumber      string
	ExpireMonth     int
	ExpireYear      int
	Cvv2            string
	BillingCardID   string
	TokenizedCardID string
	SaveCard        bool
}

// PaymentRequest is the host's one-time payment contract.
type PaymentRequest struct {
	// OrderGUID is the host order's unique identifier; it becomes the
	// gateway purchase id, truncated to 25 characters.
	OrderGUID string

	// PrimaryCurrency is the store's primary currency code. Anything but
	// USD is a configuration error.
	PrimaryCurrency string

	OrderTotal float64
	Customer   Customer
	Cart       Cart
	Card       CardInput
}

// CyclePeriod is the host's recurring cycle unit.
type CyclePeriod int

const (
	PeriodDays CyclePeriod = iota
	PeriodWeeks
	PeriodMonths
	PeriodYears
)

func (p CyclePeriod) String() string {
	switch p {
	case PeriodDays:
		return "days"
	case PeriodWeeks:
		return "weeks"
	case PeriodMonths:
		return "months"
	case PeriodYears:
		return "years"
	}
	return "unknown"
}

// RecurringRequest is the host's recurring payment contract. TotalCycles of
// zero means the subscription runs until cancelled.
type RecurringRequest struct {
	OrderGUID       string
	PrimaryCurrency string
	OrderTotal      float64
	Customer        Customer

	CyclePeriod CyclePeriod
	CycleLength int
	TotalCycles int
}

// PaymentStatus is the host-side order payment status the processor maps
// gateway outcomes onto.
type PaymentStatus string

const (
	StatusPending           PaymentStatus = "pending"
	StatusAuthorized        PaymentStatus = "authorized"
	StatusPaid              PaymentStatus = "paid"
	StatusPartiallyRefunded PaymentStatus = "partially_refunded"
	StatusRefunded          PaymentStatus = "refunded"
	StatusVoided            PaymentStatus = "voided"
)

// Result reports a processed payment action back to the host.
type Result struct {
	NewPaymentStatus PaymentStatus

	AuthorizationTransactionID string
	CaptureTransactionID       string
	AuthorizationCode          string
	AvsResult                  string
	Cvv2Result                 string
	Message                    string

	// SubscriptionID is set for recurring payments.
	SubscriptionID int64
}
