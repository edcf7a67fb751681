// Package terminal runs one actor per ordering terminal. The actor mailbox
// serializes cart edits, checkout, timer expiry and cross-context sync for
// that terminal.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/cart"
	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/pricing"
	"github.com/example/cloudkitchen/pkg/repository"
)

var (
	ErrInvalidTerminal   = errors.New("invalid terminal id")
	ErrExportUnavailable = errors.New("export is not configured")
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultExportTimeout  = 30 * time.Second
)

var terminalID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Deps struct {
	Store      repository.Store
	History    *orders.History
	Calculator pricing.Calculator
	Auditor    repository.Auditor
	Exporter   checkout.Exporter
	Logger     *zap.Logger
}

type Options struct {
	Storage        config.StorageConfig
	Dwell          time.Duration
	RequestTimeout time.Duration
	ExportTimeout  time.Duration
	// NewOrderID overrides order id generation.
	NewOrderID func() int
}

// Registry spawns terminal actors on first use and routes requests and
// store changes to them.
type Registry struct {
	system *actor.ActorSystem
	deps   Deps
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	pids      map[string]*actor.PID
	cartOwner map[string]string
}

func NewRegistry(system *actor.ActorSystem, deps Deps, opts Options) *Registry {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ExportTimeout <= 0 {
		opts.ExportTimeout = defaultExportTimeout
	}
	return &Registry{
		system:    system,
		deps:      deps,
		opts:      opts,
		logger:    deps.Logger.Named("terminal"),
		pids:      make(map[string]*actor.PID),
		cartOwner: make(map[string]string),
	}
}

func (r *Registry) props(terminal string) *actor.Props {
	cartKey := r.opts.Storage.TerminalKey(terminal, r.opts.Storage.CartKey)
	orderIDKey := ""
	if r.opts.Storage.OrderIDKey != "" {
		orderIDKey = r.opts.Storage.TerminalKey(terminal, r.opts.Storage.OrderIDKey)
	}
	logger := r.deps.Logger.With(zap.String("terminal", terminal))

	build := func(s checkout.Scheduler) *checkout.Session {
		return checkout.NewSession(terminal, checkout.Deps{
			Cart:       cart.NewStore(r.deps.Store, cartKey, logger),
			History:    r.deps.History,
			Store:      r.deps.Store,
			Calculator: r.deps.Calculator,
			Scheduler:  s,
			Auditor:    r.deps.Auditor,
			Logger:     r.deps.Logger,
		}, checkout.Options{
			Dwell:      r.opts.Dwell,
			OrderIDKey: orderIDKey,
			NewOrderID: r.opts.NewOrderID,
		})
	}

	return actor.PropsFromProducer(func() actor.Actor {
		return &Actor{
			build:         build,
			exporter:      r.deps.Exporter,
			exportTimeout: r.opts.ExportTimeout,
			logger:        logger.Named("terminal-actor"),
		}
	})
}

func (r *Registry) pid(terminal string) (*actor.PID, error) {
	if !terminalID.MatchString(terminal) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerminal, terminal)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pid, ok := r.pids[terminal]; ok {
		return pid, nil
	}

	pid, err := r.system.Root.SpawnNamed(r.props(terminal), "terminal-"+terminal)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn terminal actor: %w", err)
	}
	r.pids[terminal] = pid
	r.cartOwner[r.opts.Storage.TerminalKey(terminal, r.opts.Storage.CartKey)] = terminal

	r.logger.Info("Spawned terminal actor", zap.String("terminal", terminal), zap.String("pid", pid.Id))
	return pid, nil
}

func (r *Registry) request(ctx context.Context, terminal string, msg interface{}, timeout time.Duration) (*reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pid, err := r.pid(terminal)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	res, err := r.system.Root.RequestFuture(pid, msg, timeout).Result()
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", terminal, err)
	}
	rep, ok := res.(*reply)
	if !ok {
		return nil, fmt.Errorf("terminal %s: unexpected response %T", terminal, res)
	}
	return rep, nil
}

func (r *Registry) viewRequest(ctx context.Context, terminal string, msg interface{}) (checkout.View, error) {
	rep, err := r.request(ctx, terminal, msg, r.opts.RequestTimeout)
	if err != nil {
		return checkout.View{}, err
	}
	return rep.View, rep.Err
}

func (r *Registry) View(ctx context.Context, terminal string) (checkout.View, error) {
	return r.viewRequest(ctx, terminal, &getView{})
}

func (r *Registry) AddItem(ctx context.Context, terminal string, item models.CartItem) (checkout.View, error) {
	return r.viewRequest(ctx, terminal, &addItem{Item: item})
}

func (r *Registry) RemoveItem(ctx context.Context, terminal, name string) (checkout.View, error) {
	return r.viewRequest(ctx, terminal, &removeItem{Name: name})
}

func (r *Registry) ChangeQuantity(ctx context.Context, terminal, name string, delta int) (checkout.View, error) {
	return r.viewRequest(ctx, terminal, &changeQuantity{Name: name, Delta: delta})
}

func (r *Registry) PlaceOrder(ctx context.Context, terminal string) (models.Order, checkout.View, error) {
	rep, err := r.request(ctx, terminal, &placeOrder{}, r.opts.RequestTimeout)
	if err != nil {
		return models.Order{}, checkout.View{}, err
	}
	return rep.Order, rep.View, rep.Err
}

func (r *Registry) CloseSummary(ctx context.Context, terminal string) (checkout.View, error) {
	return r.viewRequest(ctx, terminal, &closeSummary{})
}

// ExportSummary exports the open order summary and, on success, ends the
// checkout. It waits for the export to finish.
func (r *Registry) ExportSummary(ctx context.Context, terminal string) (checkout.Summary, checkout.View, error) {
	rep, err := r.request(ctx, terminal, &exportSummary{}, r.opts.RequestTimeout+r.opts.ExportTimeout)
	if err != nil {
		return checkout.Summary{}, checkout.View{}, err
	}
	return rep.Summary, rep.View, rep.Err
}

// HandleChange forwards a foreign write of a terminal's cart to its actor.
// Terminals without a running actor load the cart when they start.
func (r *Registry) HandleChange(c repository.Change) {
	if !repository.IsForeign(r.deps.Store, c) {
		return
	}

	r.mu.Lock()
	terminal, ok := r.cartOwner[c.Key]
	var pid *actor.PID
	if ok {
		pid = r.pids[terminal]
	}
	r.mu.Unlock()

	if pid != nil {
		r.system.Root.Send(pid, &cartChanged{})
	}
}

// Resync makes every running terminal re-read its cart. It is used after
// the change feed was interrupted and changes may have been missed.
func (r *Registry) Resync() {
	r.mu.Lock()
	pids := make([]*actor.PID, 0, len(r.pids))
	for _, pid := range r.pids {
		pids = append(pids, pid)
	}
	r.mu.Unlock()

	for _, pid := range pids {
		r.system.Root.Send(pid, &cartChanged{})
	}
}

// Terminals lists the terminals with a running actor.
func (r *Registry) Terminals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.pids))
	for t := range r.pids {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stop stops every terminal actor and waits for them to finish.
func (r *Registry) Stop() {
	r.mu.Lock()
	pids := make([]*actor.PID, 0, len(r.pids))
	for _, pid := range r.pids {
		pids = append(pids, pid)
	}
	r.pids = make(map[string]*actor.PID)
	r.cartOwner = make(map[string]string)
	r.mu.Unlock()

	for _, pid := range pids {
		if err := r.system.Root.StopFuture(pid).Wait(); err != nil {
			r.logger.Warn("Terminal actor did not stop in time", zap.String("pid", pid.Id), zap.Error(err))
		}
	}
}
