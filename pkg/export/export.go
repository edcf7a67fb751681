// Package export writes order summaries and sales reports as YAML documents.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/dashboard"
)

const (
	orderPrefix  = "OrderSummary"
	reportPrefix = "Sales_Report"
)

var _ checkout.Exporter = (*FileExporter)(nil)

// FileExporter writes one file per export into a directory. It is safe for
// concurrent use.
type FileExporter struct {
	dir      string
	currency string
	now      func() time.Time
	logger   *zap.Logger
}

func NewFileExporter(dir, currency string, logger *zap.Logger) *FileExporter {
	return &FileExporter{
		dir:      dir,
		currency: currency,
		now:      time.Now,
		logger:   logger.Named("export"),
	}
}

// SetClock overrides the time used for file names and document stamps.
func (e *FileExporter) SetClock(now func() time.Time) {
	e.now = now
}

func (e *FileExporter) Dir() string {
	return e.dir
}

type orderLine struct {
	Name      string `yaml:"name"`
	Quantity  int    `yaml:"quantity"`
	Price     string `yaml:"price"`
	LineTotal string `yaml:"line_total"`
}

type orderTotals struct {
	Subtotal string `yaml:"subtotal"`
	Tax      string `yaml:"tax"`
	Delivery string `yaml:"delivery"`
	Total    string `yaml:"total"`
}

type orderDocument struct {
	Title       string      `yaml:"title"`
	OrderID     int         `yaml:"order_id"`
	GeneratedAt time.Time   `yaml:"generated_at"`
	Currency    string      `yaml:"currency"`
	Items       []orderLine `yaml:"items"`
	Totals      orderTotals `yaml:"totals"`
}

type reportSummary struct {
	TotalRevenue  string `yaml:"total_revenue"`
	TotalOrders   int    `yaml:"total_orders"`
	AvgOrderValue string `yaml:"avg_order_value"`
	TotalTax      string `yaml:"total_tax"`
	TotalDelivery string `yaml:"total_delivery"`
	TotalItems    int    `yaml:"total_items"`
}

type reportRow struct {
	OrderID   int       `yaml:"order_id"`
	Timestamp time.Time `yaml:"timestamp"`
	Items     string    `yaml:"items"`
	ItemCount int       `yaml:"item_count"`
	Total     string    `yaml:"total"`
}

type reportDocument struct {
	Title       string        `yaml:"title"`
	Period      string        `yaml:"period"`
	From        time.Time     `yaml:"from"`
	To          time.Time     `yaml:"to"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Currency    string        `yaml:"currency"`
	Summary     reportSummary `yaml:"summary"`
	Orders      []reportRow   `yaml:"orders"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ExportOrder writes the summary of a placed order.
func (e *FileExporter) ExportOrder(ctx context.Context, summary checkout.Summary) error {
	_, err := e.WriteOrder(ctx, summary)
	return err
}

// WriteOrder is ExportOrder that also reports the written path.
func (e *FileExporter) WriteOrder(ctx context.Context, summary checkout.Summary) (string, error) {
	now := e.now()
	doc := orderDocument{
		Title:       "Order Summary",
		OrderID:     summary.OrderID,
		GeneratedAt: now,
		Currency:    e.currency,
		Items:       make([]orderLine, 0, len(summary.Lines)),
		Totals: orderTotals{
			Subtotal: money(summary.Totals.Subtotal),
			Tax:      money(summary.Totals.Tax),
			Delivery: money(summary.Totals.Delivery),
			Total:    money(summary.Totals.Total),
		},
	}
	for _, l := range summary.Lines {
		doc.Items = append(doc.Items, orderLine{
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     money(l.Price),
			LineTotal: money(l.LineTotal),
		})
	}

	path, err := e.write(ctx, orderPrefix, now, doc)
	if err != nil {
		return "", err
	}
	e.logger.Info("Exported order summary", zap.Int("order_id", summary.OrderID), zap.String("path", path))
	return path, nil
}

// ExportReport writes the dashboard view as a sales report.
func (e *FileExporter) ExportReport(ctx context.Context, view dashboard.View) (string, error) {
	now := e.now()
	doc := reportDocument{
		Title:       "Sales Report",
		Period:      string(view.Period),
		From:        view.Range.Start,
		To:          view.Range.End,
		GeneratedAt: now,
		Currency:    e.currency,
		Summary: reportSummary{
			TotalRevenue:  money(view.Summary.TotalRevenue),
			TotalOrders:   view.Summary.TotalOrders,
			AvgOrderValue: money(view.Summary.AvgOrderValue),
			TotalTax:      money(view.Summary.TotalTax),
			TotalDelivery: money(view.Summary.TotalDelivery),
			TotalItems:    view.Summary.TotalItems,
		},
		Orders: make([]reportRow, 0, len(view.Orders)),
	}
	for _, o := range view.Orders {
		doc.Orders = append(doc.Orders, reportRow{
			OrderID:   o.OrderID,
			Timestamp: o.Timestamp,
			Items:     o.Items,
			ItemCount: o.ItemCount,
			Total:     money(o.Total),
		})
	}

	path, err := e.write(ctx, reportPrefix, now, doc)
	if err != nil {
		return "", err
	}
	e.logger.Info("Exported sales report", zap.Int("orders", len(view.Orders)), zap.String("path", path))
	return path, nil
}

func (e *FileExporter) write(ctx context.Context, prefix string, now time.Time, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", prefix, err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%d.yaml", prefix, now.UnixMilli()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
