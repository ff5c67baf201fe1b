package checkout

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// PaymentInfo is the raw payment form as submitted by the shopper. When a
// vaulted or tokenized card id is present the card fields are not required;
// otherwise the full card data must validate.
type PaymentInfo struct {
	CardholderName  string `validate:"required_without_all=BillingCardID TokenizedCardID"`
	CardNumber      string `validate:"required_without_all=BillingCardID TokenizedCardID,omitempty,credit_card"`
	ExpireMonth     string `validate:"required_without_all=BillingCardID TokenizedCardID,omitempty,numeric,min=1,max=2"`
	ExpireYear      string `validate:"required_without_all=BillingCardID TokenizedCardID,omitempty,numeric,len=4"`
	Cvv2            string `validate:"required_without_all=BillingCardID TokenizedCardID,omitempty,numeric,min=3,max=4"`
	BillingCardID   string `validate:"omitempty,max=32"`
	TokenizedCardID string `validate:"omitempty,max=32"`
}

var paymentInfoMessages = map[string]string{
	"CardholderName":  "Cardholder name is required",
	"CardNumber":      "Card number is not valid",
	"ExpireMonth":     "Expiration month is not valid",
	"ExpireYear":      "Expiration year is not valid",
	"Cvv2":            "Card code is not valid",
	"BillingCardID":   "Stored card id is not valid",
	"TokenizedCardID": "Card token is not valid",
}

// ValidatePaymentForm checks the raw payment form and returns one warning
// per invalid field. An empty slice means the form is acceptable.
func (p *Processor) ValidatePaymentForm(info PaymentInfo) []string {
	err := p.validate.Struct(info)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{"Payment information could not be validated"}
	}

	warnings := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := paymentInfoMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is not valid", fe.Field())
		}
		warnings = append(warnings, msg)
	}
	return warnings
}
