// Package pricing computes cart totals.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/models"
)

var (
	DefaultTaxRate     = decimal.RequireFromString("0.18")
	DefaultDeliveryFee = decimal.NewFromInt(45)
)

// Calculator maps a cart to its totals. It is a value type with no side
// effects; the zero value charges neither tax nor delivery.
type Calculator struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
}

func Default() Calculator {
	return Calculator{TaxRate: DefaultTaxRate, DeliveryFee: DefaultDeliveryFee}
}

// FromConfig builds a calculator from the pricing section.
func FromConfig(cfg *config.PricingConfig) (Calculator, error) {
	rate, fee, err := cfg.Rates()
	if err != nil {
		return Calculator{}, err
	}
	return Calculator{TaxRate: rate, DeliveryFee: fee}, nil
}

func (c Calculator) Compute(items []models.CartItem) models.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	tax := subtotal.Mul(c.TaxRate)

	delivery := decimal.Zero
	if len(items) > 0 {
		delivery = c.DeliveryFee
	}

	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Delivery: delivery,
		Total:    subtotal.Add(tax).Add(delivery),
	}
}

// Count is the number of units in the cart, not the number of lines.
func Count(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// Money formats an amount the way receipts and the dashboard show it.
func Money(currency string, amount decimal.Decimal) string {
	return currency + amount.StringFixed(2)
}
