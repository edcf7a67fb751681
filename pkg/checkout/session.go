// Package checkout records orders and owns the lifecycle of a terminal's
// order summary: placing, the auto-close timer, explicit close and export.
package checkout

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/cart"
	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/pricing"
	"github.com/example/cloudkitchen/pkg/repository"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNoSummary = errors.New("no order summary is open")
)

const (
	minOrderID = 100000
	maxOrderID = 999999 // exclusive

	DefaultDwell = 30 * time.Second

	auditTimeout = 5 * time.Second
)

// Reasons a checkout session ends.
const (
	ReasonClosed   = "closed"
	ReasonExpired  = "expired"
	ReasonExported = "exported"
)

// Scheduler runs f once after d unless the returned stop function is called
// first. The owner of a Session decides which goroutine f runs on; it must be
// the goroutine that drives the Session.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// Exporter turns an order summary into an external artifact. It may be slow
// and is run off the session goroutine.
type Exporter interface {
	ExportOrder(ctx context.Context, summary Summary) error
}

// RandomOrderID draws from [100000, 999999). Ids are not checked against the
// history, so collisions are possible.
func RandomOrderID() int {
	return minOrderID + rand.IntN(maxOrderID-minOrderID)
}

type Deps struct {
	Cart       *cart.Store
	History    *orders.History
	Store      repository.Store
	Calculator pricing.Calculator
	Scheduler  Scheduler
	Auditor    repository.Auditor
	Logger     *zap.Logger
}

type Options struct {
	// Dwell is how long a placed order's summary stays open without action.
	Dwell time.Duration
	// OrderIDKey persists the active order id; empty disables it.
	OrderIDKey string
	NewOrderID func() int
	Now        func() time.Time
}

// Session is the checkout state of one terminal. It is not safe for
// concurrent use.
type Session struct {
	terminal   string
	cart       *cart.Store
	history    *orders.History
	kv         repository.Store
	calc       pricing.Calculator
	scheduler  Scheduler
	auditor    repository.Auditor
	logger     *zap.Logger
	dwell      time.Duration
	orderIDKey string
	newOrderID func() int
	now        func() time.Time

	orderID   int
	visible   bool
	epoch     uint64
	timerGen  uint64
	stopTimer func() bool
}

func NewSession(terminal string, deps Deps, opts Options) *Session {
	s := &Session{
		terminal:   terminal,
		cart:       deps.Cart,
		history:    deps.History,
		kv:         deps.Store,
		calc:       deps.Calculator,
		scheduler:  deps.Scheduler,
		auditor:    deps.Auditor,
		logger:     deps.Logger.Named("checkout").With(zap.String("terminal", terminal)),
		dwell:      opts.Dwell,
		orderIDKey: opts.OrderIDKey,
		newOrderID: opts.NewOrderID,
		now:        opts.Now,
	}
	if s.auditor == nil {
		s.auditor = repository.NopAuditor{}
	}
	if s.dwell <= 0 {
		s.dwell = DefaultDwell
	}
	if s.newOrderID == nil {
		s.newOrderID = RandomOrderID
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Session) Terminal() string {
	return s.terminal
}

func (s *Session) Cart() *cart.Store {
	return s.cart
}

// Start loads the persisted cart and any order id left active by a previous
// run of this terminal.
func (s *Session) Start(ctx context.Context) {
	s.cart.Load(ctx)

	if s.orderIDKey == "" || s.kv == nil {
		return
	}
	data, err := s.kv.Get(ctx, s.orderIDKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to read active order id", zap.Error(err))
		}
		return
	}
	id, err := strconv.Atoi(string(data))
	if err != nil || id < minOrderID || id >= maxOrderID {
		s.logger.Warn("Ignoring malformed active order id", zap.ByteString("value", data))
		return
	}
	s.orderID = id
}

// Sync re-reads the cart after another context changed it.
func (s *Session) Sync(ctx context.Context) {
	s.cart.Load(ctx)
}

func (s *Session) AddItem(ctx context.Context, item models.CartItem) {
	s.cart.Add(ctx, item.Name, item.Price, item.Image)
}

func (s *Session) RemoveItem(ctx context.Context, name string) {
	s.cart.Remove(ctx, name)
}

func (s *Session) ChangeQuantity(ctx context.Context, name string, delta int) {
	s.cart.ChangeQuantity(ctx, name, delta)
}

// PlaceOrder snapshots the cart into the order history and opens the order
// summary. Placing again while the summary is open keeps the same order id
// and records another order.
func (s *Session) PlaceOrder(ctx context.Context) (models.Order, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	id := s.orderID
	if id == 0 {
		id = s.newOrderID()
	}

	totals := s.calc.Compute(items)
	order := models.Order{
		OrderID:   id,
		Timestamp: s.now().UTC(),
		Items:     items,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Delivery:  totals.Delivery,
		Total:     totals.Total,
	}

	if err := s.history.Append(ctx, order); err != nil {
		return models.Order{}, err
	}

	if s.orderID == 0 {
		s.orderID = id
		s.persistOrderID(ctx)
	}
	s.visible = true
	s.arm()

	s.logger.Info("Order placed",
		zap.Int("order_id", order.OrderID),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)))
	s.audit("place_order", order.OrderID, bson.M{
		"terminal": s.terminal,
		"total":    order.Total.String(),
		"items":    order.ItemCount(),
	})

	return order, nil
}

// Summary returns the open order summary, computed from the live cart.
func (s *Session) Summary() (Summary, bool) {
	if !s.visible {
		return Summary{}, false
	}
	return BuildSummary(s.orderID, s.cart.Items(), s.calc), true
}

// Close dismisses the open summary and resets the session.
func (s *Session) Close(ctx context.Context) error {
	if !s.visible {
		return ErrNoSummary
	}
	s.finalize(ctx, ReasonClosed)
	return nil
}

// PrepareExport returns the summary to export and a token identifying the
// current checkout session for CompleteExport.
func (s *Session) PrepareExport() (Summary, uint64, error) {
	summary, ok := s.Summary()
	if !ok {
		return Summary{}, 0, ErrNoSummary
	}
	return summary, s.epoch, nil
}

// CompleteExport finalizes the session the export was started from. A failed
// export, or one whose session already ended, changes nothing. It reports
// whether the session was finalized.
func (s *Session) CompleteExport(ctx context.Context, token uint64, exportErr error) bool {
	if exportErr != nil {
		s.logger.Warn("Order summary export failed", zap.Error(exportErr))
		return false
	}
	if token != s.epoch || !s.visible {
		s.logger.Debug("Ignoring export for a finished checkout", zap.Uint64("token", token))
		return false
	}
	s.finalize(ctx, ReasonExported)
	return true
}

// View is everything a terminal screen renders.
type View struct {
	Terminal string            `json:"terminal"`
	Items    []models.CartItem `json:"items"`
	Totals   models.Totals     `json:"totals"`
	Count    int               `json:"count"`
	Summary  *Summary          `json:"summary,omitempty"`
}

func (s *Session) View() View {
	items := s.cart.Items()
	v := View{
		Terminal: s.terminal,
		Items:    items,
		Totals:   s.calc.Compute(items),
		Count:    pricing.Count(items),
	}
	if summary, ok := s.Summary(); ok {
		v.Summary = &summary
	}
	return v
}

// Stop cancels a pending auto-close without resetting anything.
func (s *Session) Stop() {
	s.disarm()
	s.timerGen++
}

func (s *Session) arm() {
	s.disarm()
	s.timerGen++
	gen := s.timerGen
	s.stopTimer = s.scheduler.AfterFunc(s.dwell, func() {
		s.expire(gen)
	})
}

func (s *Session) disarm() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Session) expire(gen uint64) {
	if gen != s.timerGen || !s.visible {
		return
	}
	s.stopTimer = nil
	s.finalize(context.Background(), ReasonExpired)
}

func (s *Session) finalize(ctx context.Context, reason string) {
	s.disarm()
	s.timerGen++

	id := s.orderID
	s.visible = false
	s.orderID = 0
	s.epoch++

	if s.orderIDKey != "" && s.kv != nil {
		if err := s.kv.Del(ctx, s.orderIDKey); err != nil {
			s.logger.Warn("Failed to clear active order id", zap.Error(err))
		}
	}
	s.cart.Clear(ctx)

	s.logger.Info("Checkout finished", zap.Int("order_id", id), zap.String("reason", reason))
	s.audit("finish_checkout", id, bson.M{"terminal": s.terminal, "reason": reason})
}

func (s *Session) persistOrderID(ctx context.Context) {
	if s.orderIDKey == "" || s.kv == nil {
		return
	}
	if err := s.kv.Set(ctx, s.orderIDKey, []byte(strconv.Itoa(s.orderID))); err != nil {
		s.logger.Warn("Failed to persist active order id", zap.Error(err))
	}
}

func (s *Session) audit(action string, orderID int, data bson.M) {
	entry := &repository.AuditLog{
		Service:   "storefront",
		Action:    action,
		EntityID:  strconv.Itoa(orderID),
		Data:      data,
		CreatedAt: s.now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := s.auditor.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("Failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}()
}
