package checkout

import (
	"math"

	"github.com/mstgnz/qualpay/qualpay"
)

const (
	maxDescriptionLen = 25
	maxProductCodeLen = 12
)

// round2 rounds to currency minor units.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// truncate cuts s to the gateway's field limit.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func newItem(price float64, description, productCode string, quantity int) qualpay.LineItem {
	return qualpay.LineItem{
		CreditType:  qualpay.CreditTypeDebit,
		Description: truncate(description, maxDescriptionLen),
		MeasureUnit: "*",
		ProductCode: truncate(productCode, maxProductCodeLen),
		Quantity:    quantity,
		UnitPrice:   price,
	}
}

// buildLineItems turns the cart into the gateway line-item breakdown: one
// item per cart line, one per checkout-attribute charge, one for the payment
// method surcharge, one for shipping, and a synthetic discount item when the
// item sum plus tax overshoots the order total. The gateway requires the
// breakdown to reconcile with the charged total exactly.
func (p *Processor) buildLineItems(cart Cart, orderTotal float64) []qualpay.LineItem {
	items := make([]qualpay.LineItem, 0, len(cart.Lines)+len(cart.Attributes)+3)

	for _, line := range cart.Lines {
		items = append(items, newItem(line.UnitPrice, line.Name, line.SKU, line.Quantity))
	}

	for _, attr := range cart.Attributes {
		if attr.Amount == 0 {
			continue
		}
		items = append(items, newItem(attr.Amount, attr.Name, "checkout", 1))
	}

	if fee := p.AdditionalFee(cart); fee > 0 {
		items = append(items, newItem(fee, "Payment (Qualpay)", "payment", 1))
	}

	if cart.RequiresShipping && cart.ShippingAmount > 0 {
		items = append(items, newItem(cart.ShippingAmount, "Shipping rate", "shipping", 1))
	}

	// Tax is reported separately, so it is subtracted before computing the
	// discount remainder.
	var itemSum float64
	for _, item := range items {
		itemSum += item.UnitPrice * float64(item.Quantity)
	}
	difference := round2(orderTotal - itemSum - cart.TaxAmount)
	if difference < 0 {
		items = append(items, newItem(difference, "Discount amount", "discounts", 1))
	}

	return items
}

// AdditionalFee returns the payment method surcharge for the cart, either a
// fixed amount or a percentage of the cart subtotal.
func (p *Processor) AdditionalFee(cart Cart) float64 {
	if p.settings.AdditionalFee <= 0 {
		return 0
	}
	if !p.settings.AdditionalFeePercentage {
		return round2(p.settings.AdditionalFee)
	}
	var subtotal float64
	for _, line := range cart.Lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}
	for _, attr := range cart.Attributes {
		subtotal += attr.Amount
	}
	return round2(subtotal * p.settings.AdditionalFee / 100)
}
