package terminal

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/models"
)

// Messages
type addItem struct {
	Item models.CartItem
}

type removeItem struct {
	Name string
}

type changeQuantity struct {
	Name  string
	Delta int
}

type getView struct{}

type placeOrder struct{}

type closeSummary struct{}

type exportSummary struct{}

// cartChanged tells the actor another context rewrote its cart.
type cartChanged struct{}

// runTask carries a timer callback back onto the actor goroutine.
type runTask struct {
	f func()
}

type exportDone struct {
	token   uint64
	summary checkout.Summary
	err     error
	sender  *actor.PID
}

// reply is the response to every request message.
type reply struct {
	View    checkout.View
	Order   models.Order
	Summary checkout.Summary
	Err     error
}

// mailboxScheduler fires timers by sending a runTask to the actor, so
// callbacks run on the actor goroutine like every other message.
type mailboxScheduler struct {
	root *actor.RootContext
	self *actor.PID
}

func (s *mailboxScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, func() {
		s.root.Send(s.self, &runTask{f: f})
	})
	return t.Stop
}

// Actor owns the checkout session of one terminal. Everything that touches
// the session runs inside Receive.
type Actor struct {
	build         func(checkout.Scheduler) *checkout.Session
	exporter      checkout.Exporter
	exportTimeout time.Duration
	logger        *zap.Logger

	session *checkout.Session
}

func (a *Actor) Receive(ctx actor.Context) {
	bg := context.Background()

	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.session = a.build(&mailboxScheduler{root: ctx.ActorSystem().Root, self: ctx.Self()})
		a.session.Start(bg)
		a.logger.Info("Terminal actor started")

	case *addItem:
		a.session.AddItem(bg, msg.Item)
		ctx.Respond(a.snapshot())

	case *removeItem:
		a.session.RemoveItem(bg, msg.Name)
		ctx.Respond(a.snapshot())

	case *changeQuantity:
		a.session.ChangeQuantity(bg, msg.Name, msg.Delta)
		ctx.Respond(a.snapshot())

	case *getView:
		ctx.Respond(a.snapshot())

	case *placeOrder:
		order, err := a.session.PlaceOrder(bg)
		r := a.snapshot()
		r.Order = order
		r.Err = err
		ctx.Respond(r)

	case *closeSummary:
		err := a.session.Close(bg)
		r := a.snapshot()
		r.Err = err
		ctx.Respond(r)

	case *exportSummary:
		a.startExport(ctx)

	case *exportDone:
		finalized := a.session.CompleteExport(bg, msg.token, msg.err)
		if msg.sender == nil {
			return
		}
		r := a.snapshot()
		r.Summary = msg.summary
		r.Err = msg.err
		if r.Err == nil && !finalized {
			r.Err = checkout.ErrNoSummary
		}
		ctx.Send(msg.sender, r)

	case *cartChanged:
		a.session.Sync(bg)

	case *runTask:
		msg.f()

	case *actor.Stopping:
		if a.session != nil {
			a.session.Stop()
		}
		a.logger.Info("Terminal actor stopping")
	}
}

func (a *Actor) snapshot() *reply {
	return &reply{View: a.session.View()}
}

// startExport runs the exporter off the actor goroutine and reports back
// with exportDone. The requester is answered once the result is applied.
func (a *Actor) startExport(ctx actor.Context) {
	summary, token, err := a.session.PrepareExport()
	if err == nil && a.exporter == nil {
		err = ErrExportUnavailable
	}
	if err != nil {
		r := a.snapshot()
		r.Err = err
		ctx.Respond(r)
		return
	}

	root := ctx.ActorSystem().Root
	self := ctx.Self()
	sender := ctx.Sender()
	go func() {
		ectx, cancel := context.WithTimeout(context.Background(), a.exportTimeout)
		defer cancel()
		err := a.exporter.ExportOrder(ectx, summary)
		root.Send(self, &exportDone{token: token, summary: summary, err: err, sender: sender})
	}()
}
