// Package dashboard reduces the order history to sales figures for a period.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/repository"
)

var ErrConfirmationRequired = errors.New("clearing sales data requires confirmation")

// Query selects the orders a view covers. From and To are only read for
// PeriodCustom.
type Query struct {
	Period Period `form:"period" json:"period"`
	From   string `form:"from" json:"from,omitempty"`
	To     string `form:"to" json:"to,omitempty"`
}

func (q Query) Resolve(now time.Time) (DateRange, error) {
	if q.Period == PeriodCustom {
		return CustomRange(q.From, q.To, now.Location())
	}
	return ResolvePeriod(q.Period, now), nil
}

type View struct {
	Period  Period    `json:"period" yaml:"period"`
	Range   DateRange `json:"range" yaml:"range"`
	Summary Summary   `json:"summary" yaml:"summary"`
	Orders  []Entry   `json:"orders" yaml:"orders"`
}

// Dashboard reads the order history and never touches any cart.
type Dashboard struct {
	history *orders.History
	auditor repository.Auditor
	logger  *zap.Logger
	now     func() time.Time

	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func New(history *orders.History, auditor repository.Auditor, logger *zap.Logger) *Dashboard {
	if auditor == nil {
		auditor = repository.NopAuditor{}
	}
	return &Dashboard{
		history: history,
		auditor: auditor,
		logger:  logger.Named("dashboard"),
		now:     time.Now,
		subs:    make(map[int]chan struct{}),
	}
}

// SetClock overrides the time source used to resolve periods.
func (d *Dashboard) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Dashboard) View(ctx context.Context, q Query) (View, error) {
	if q.Period == "" {
		q.Period = PeriodToday
	}

	r, err := q.Resolve(d.now())
	if err != nil {
		return View{}, err
	}

	filtered := FilterByRange(d.history.All(ctx), r)
	return View{
		Period:  q.Period,
		Range:   r,
		Summary: Summarize(filtered),
		Orders:  Listing(filtered),
	}, nil
}

// ClearHistory wipes every recorded order. It refuses to run unless the
// caller confirmed.
func (d *Dashboard) ClearHistory(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	count := len(d.history.All(ctx))
	if err := d.history.Clear(ctx); err != nil {
		return err
	}

	d.logger.Warn("Order history cleared", zap.Int("orders", count))
	if err := d.auditor.CreateAuditLog(ctx, &repository.AuditLog{
		Service:  "dashboard",
		Action:   "clear_history",
		EntityID: d.history.Key(),
		Data:     bson.M{"orders": count},
	}); err != nil {
		d.logger.Warn("Failed to write audit log", zap.Error(err))
	}
	return nil
}

// Subscribe returns a channel that receives a signal whenever the order
// history changes. Signals coalesce; receivers re-read the whole view.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// HandleChange notifies subscribers when c touches the order history. Writes
// from this process count too: the dashboard is its own reader.
func (d *Dashboard) HandleChange(c repository.Change) {
	if c.Key != d.history.Key() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
