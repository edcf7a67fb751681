package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/pricing"
)

// Line is one row of an order summary.
type Line struct {
	Name      string          `json:"name" yaml:"name"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	LineTotal decimal.Decimal `json:"lineTotal" yaml:"line_total"`
}

// Summary is the order summary shown after an order is placed.
type Summary struct {
	OrderID int           `json:"orderId" yaml:"order_id"`
	Lines   []Line        `json:"lines" yaml:"lines"`
	Totals  models.Totals `json:"totals" yaml:"totals"`
}

func BuildSummary(orderID int, items []models.CartItem, calc pricing.Calculator) Summary {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		})
	}
	return Summary{
		OrderID: orderID,
		Lines:   lines,
		Totals:  calc.Compute(items),
	}
}
