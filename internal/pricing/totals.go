// Package pricing holds the single totals calculation shared by every
// checkout path.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Rules are the shipping and tax parameters applied to a subtotal.
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	TaxRate               decimal.Decimal
}

// Breakdown is the customer-facing split of an order total.
type Breakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Line is one priced quantity contributing to a subtotal.
type Line struct {
	Price    float64
	Quantity int
}

// DefaultRules returns the storefront's standard pricing: free shipping from
// 999, otherwise a flat 99, and 18% tax on the subtotal.
func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromInt(999),
		FlatShipping:          decimal.NewFromInt(99),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// NewRules builds rules from configured values.
func NewRules(freeShippingThreshold, flatShipping, taxRate float64) Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
		FlatShipping:          decimal.NewFromFloat(flatShipping),
		TaxRate:               decimal.NewFromFloat(taxRate),
	}
}

// Subtotal sums price x quantity over lines.
func Subtotal(lines ...Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Compute applies shipping and tax to subtotal. Shipping is free at or above
// the threshold; tax and total are rounded to two places.
func (r Rules) Compute(subtotal decimal.Decimal) Breakdown {
	shipping := r.FlatShipping
	if subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(r.TaxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Round(2)

	return Breakdown{
		Subtotal: subtotal.Round(2),
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}

// Floats returns the breakdown as plain numbers for storage and JSON.
func (b Breakdown) Floats() (subtotal, shipping, tax, total float64) {
	return b.Subtotal.InexactFloat64(), b.Shipping.InexactFloat64(), b.Tax.InexactFloat64(), b.Total.InexactFloat64()
}
