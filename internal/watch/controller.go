package watch

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/store"
)

// Controller owns the session bootstrap and the collection subscription,
// folding deliveries into Updates for the presentation layer. At most one
// subscription is active at any time; opening a new one always releases
// the previous handle first.
type Controller struct {
	client *store.Client
	cfg    config.Resolved
	lg     *zap.Logger

	updates chan Update

	mu     sync.Mutex
	conn   ConnState
	err    error // sticky: never cleared by later deliveries
	raw    []menu.Product
	active string
	sub    *store.Subscription
	closed bool
}

// New constructs a Controller. Run must be called for updates to flow.
func New(client *store.Client, cfg config.Resolved, lg *zap.Logger) *Controller {
	return &Controller{
		client:  client,
		cfg:     cfg,
		lg:      lg.Named("watch"),
		updates: make(chan Update, 8),
		active:  menu.CategoryAll,
	}
}

// Updates returns the emission channel. It is closed when Run returns.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// SetCategory changes the active filter and emits a re-reduced view.
// It re-enters the reducer only; no network activity is involved.
func (c *Controller) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = category
	c.emitLocked()
}

// Run bootstraps the session, subscribes to the tenant's product
// collection, and consumes snapshots until ctx is cancelled. Subscription
// and transform failures surface as a sticky error state rather than an
// error return; Run only returns early on unrecoverable setup problems.
func (c *Controller) Run(ctx context.Context) error {
	defer c.closeUpdates()

	// Announce the initial loading state so the UI has something to
	// render before the service answers.
	c.mu.Lock()
	c.emitLocked()
	c.mu.Unlock()

	session := c.client.Bootstrap(ctx)
	if err := ctx.Err(); err != nil {
		return nil
	}

	path := menu.CollectionPath(c.cfg.AppID)
	if err := c.resubscribe(ctx, path, session.Token()); err != nil {
		c.fail(errors.Wrap(err, "open subscription"))
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.consume()
		return nil
	})
	g.Go(func() error {
		// Release the subscription when the owning scope is torn down.
		<-ctx.Done()
		c.releaseSub()
		return nil
	})
	return g.Wait()
}

// resubscribe releases any active subscription, then opens a new one to
// path. The release-before-dial ordering is what keeps the at-most-one
// invariant even if dependencies change while a subscription is live.
func (c *Controller) resubscribe(ctx context.Context, path, token string) error {
	c.releaseSub()

	sub, err := c.client.Subscribe(ctx, path, token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	return nil
}

// releaseSub closes the current subscription handle, if any.
func (c *Controller) releaseSub() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// consume applies snapshots in receipt order until the subscription ends.
func (c *Controller) consume() {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub == nil {
		return
	}

	for snap := range sub.Snapshots() {
		if !c.apply(snap) {
			_ = sub.Close()
			// Drain so the read loop can exit.
			for range sub.Snapshots() {
			}
			break
		}
	}

	if err := sub.Err(); err != nil {
		c.fail(err)
	}
}

// apply decodes one snapshot into the product list and emits the new
// view. It reports false when a document fails to decode, which is a
// terminal transform failure for this subscription.
func (c *Controller) apply(snap store.Snapshot) bool {
	products := make([]menu.Product, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		p, err := menu.DecodeProduct(doc.ID, doc.Fields)
		if err != nil {
			c.fail(errors.Wrap(err, "transform snapshot"))
			return false
		}
		products = append(products, p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		// A failed pipeline stays failed; late deliveries are dropped.
		return true
	}

	c.raw = products
	c.conn = ConnReady
	c.lg.Debug("snapshot applied", zap.Int("docs", len(products)))
	c.emitLocked()
	return true
}

// fail records the first error and moves the state machine to Failed.
// Subsequent errors are logged but do not replace the sticky one.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		c.lg.Warn("suppressed follow-up error", zap.Error(err))
		return
	}
	c.err = err
	c.conn = ConnFailed
	c.lg.Error("menu pipeline failed", zap.Error(err))
	c.emitLocked()
}

// emitLocked pushes the current state as an Update. Callers hold c.mu.
// When the buffer is full the oldest pending update is dropped: the UI
// only ever needs the newest state, and the sticky error can never be
// displaced because it is part of every later emission.
func (c *Controller) emitLocked() {
	if c.closed {
		return
	}

	u := Update{
		Conn:     c.conn,
		Err:      c.err,
		View:     menu.Reduce(c.raw, c.active),
		Fallback: c.cfg.Fallback,
	}

	for {
		select {
		case c.updates <- u:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}

func (c *Controller) closeUpdates() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.updates)
	}
}
