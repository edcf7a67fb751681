package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/cloudkitchen/pkg/models"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
	PeriodAll    Period = "all"
)

const dateLayout = "2006-01-02"

var (
	ErrMissingRange = errors.New("both start and end dates are required")
	ErrInvalidDate  = errors.New("invalid date")
)

// DateRange is inclusive at both ends.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ResolvePeriod maps a named period to a range ending at now. Unknown names,
// including PeriodAll, cover all time. PeriodCustom needs explicit dates; see
// CustomRange.
func ResolvePeriod(p Period, now time.Time) DateRange {
	loc := now.Location()
	var start time.Time

	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		start = time.Unix(0, 0).In(loc)
	}

	return DateRange{Start: start, End: now}
}

// CustomRange parses two YYYY-MM-DD dates in loc. The range starts at
// midnight of from and ends at 23:59:59.999 of to.
func CustomRange(from, to string, loc *time.Location) (DateRange, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return DateRange{}, ErrMissingRange
	}

	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(from), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start %q: %v", ErrInvalidDate, from, err)
	}
	endDay, err := time.ParseInLocation(dateLayout, strings.TrimSpace(to), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end %q: %v", ErrInvalidDate, to, err)
	}

	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return DateRange{Start: start, End: end}, nil
}

func FilterByRange(orders []models.Order, r DateRange) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if r.Contains(o.Timestamp) {
			out = append(out, o)
		}
	}
	return out
}

type Summary struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue" yaml:"total_revenue"`
	TotalOrders   int             `json:"totalOrders" yaml:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue" yaml:"avg_order_value"`
	TotalTax      decimal.Decimal `json:"totalTax" yaml:"total_tax"`
	TotalDelivery decimal.Decimal `json:"totalDelivery" yaml:"total_delivery"`
	TotalItems    int             `json:"totalItems" yaml:"total_items"`
}

func Summarize(orders []models.Order) Summary {
	s := Summary{
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
		TotalTax:      decimal.Zero,
		TotalDelivery: decimal.Zero,
	}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		s.TotalTax = s.TotalTax.Add(o.Tax)
		s.TotalDelivery = s.TotalDelivery.Add(o.Delivery)
		s.TotalItems += o.ItemCount()
	}
	s.TotalOrders = len(orders)
	if s.TotalOrders > 0 {
		s.AvgOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalOrders)))
	}
	return s
}

// Entry is one row of the sales list.
type Entry struct {
	OrderID   int             `json:"orderId" yaml:"order_id"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Items     string          `json:"items" yaml:"items"`
	ItemCount int             `json:"itemCount" yaml:"item_count"`
	Total     decimal.Decimal `json:"total" yaml:"total"`
}

// Listing returns the orders newest first. Orders with equal timestamps keep
// their recorded order.
func Listing(orders []models.Order) []Entry {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b models.Order) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	entries := make([]Entry, 0, len(sorted))
	for _, o := range sorted {
		entries = append(entries, Entry{
			OrderID:   o.OrderID,
			Timestamp: o.Timestamp,
			Items:     itemsLabel(o.Items),
			ItemCount: o.ItemCount(),
			Total:     o.Total,
		})
	}
	return entries
}

func itemsLabel(items []models.CartItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (x%d)", item.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}
