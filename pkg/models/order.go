package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a cart. Name is the identity key within a cart and
// Quantity is always at least 1 for a stored item.
type CartItem struct {
	Name     string          `json:"name" yaml:"name"`
	Price    decimal.Decimal `json:"price" yaml:"price"`
	Image    string          `json:"image" yaml:"image"`
	Quantity int             `json:"quantity" yaml:"quantity"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	Tax      decimal.Decimal `json:"tax" yaml:"tax"`
	Delivery decimal.Decimal `json:"delivery" yaml:"delivery"`
	Total    decimal.Decimal `json:"total" yaml:"total"`
}

// Order is an immutable snapshot of a cart taken when it was placed.
type Order struct {
	OrderID   int             `json:"orderId" yaml:"order_id"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Items     []CartItem      `json:"items" yaml:"items"`
	Subtotal  decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	Tax       decimal.Decimal `json:"tax" yaml:"tax"`
	Delivery  decimal.Decimal `json:"delivery" yaml:"delivery"`
	Total     decimal.Decimal `json:"total" yaml:"total"`
}

// ItemCount is the sum of quantities over the order's lines.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

func (o Order) Totals() Totals {
	return Totals{
		Subtotal: o.Subtotal,
		Tax:      o.Tax,
		Delivery: o.Delivery,
		Total:    o.Total,
	}
}

// CloneItems copies items so a snapshot never aliases a live cart.
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
