// Package console implements the back-office order management surface: a
// local read cache over the orders API plus guarded status transitions.
package console

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

// Sentinel errors for transition attempts.
var (
	// ErrTransitionNotAllowed means the lifecycle rules forbid the move. The
	// console refuses locally; no request reaches the API.
	ErrTransitionNotAllowed = errors.New("transition not allowed")

	// ErrConfirmationDeclined means the operator backed out of the
	// confirmation step. The order is untouched.
	ErrConfirmationDeclined = errors.New("confirmation declined")

	// ErrUpdateInFlight means another status update for the same order has
	// not resolved yet.
	ErrUpdateInFlight = errors.New("status update already in flight for this order")

	// ErrUnknownOrder means the order is not in the console's cache.
	ErrUnknownOrder = errors.New("order not loaded")
)

// API is the remote capability the console depends on. Satisfied by
// client.Client.
type API interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id string, next order.Status) error
}

// ConfirmFunc asks the operator to confirm a transition, naming the target
// status. Returning false aborts without side effects.
type ConfirmFunc func(o *order.Order, next order.Status) bool

// Console holds the admin view of orders. The cached copy is a read view of
// the API's state; it is replaced with a confirmed new status only after the
// remote update succeeds.
type Console struct {
	api     API
	lg      *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	orders   map[string]*order.Order
	inflight map[string]struct{}
}

// Option configures a Console.
type Option func(*Console)

// WithUpdateTimeout bounds each remote status update. Without a bound a hung
// request would leave the order's controls disabled forever.
func WithUpdateTimeout(d time.Duration) Option {
	return func(c *Console) { c.timeout = d }
}

// New creates a Console over the given API.
func New(api API, lg *zap.Logger, opts ...Option) *Console {
	c := &Console{
		api:      api,
		lg:       lg,
		timeout:  10 * time.Second,
		orders:   make(map[string]*order.Order),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh reloads the full order list into the cache.
func (c *Console) Refresh(ctx context.Context) error {
	list, err := c.api.ListOrders(ctx)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = make(map[string]*order.Order, len(list))
	for i := range list {
		c.orders[list[i].ID] = &list[i]
	}
	return nil
}

// Load fetches a single order into the cache and returns a copy.
func (c *Console) Load(ctx context.Context, id string) (order.Order, error) {
	o, err := c.api.GetOrder(ctx, id)
	if err != nil {
		return order.Order{}, errors.Wrapf(err, "get order %s", id)
	}

	c.mu.Lock()
	c.orders[o.ID] = o
	c.mu.Unlock()
	return *o, nil
}

// Order returns a copy of the cached order, if present.
func (c *Console) Order(id string) (order.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o, ok := c.orders[id]; ok {
		return *o, true
	}
	return order.Order{}, false
}

// Orders returns copies of all cached orders.
func (c *Console) Orders() []order.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]order.Order, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, *o)
	}
	return out
}

// Candidates returns, for every status, whether the cached order may move
// there. This is what drives enabled/disabled transition controls.
func (c *Console) Candidates(id string) (map[order.Status]bool, error) {
	c.mu.Lock()
	o, ok := c.orders[id]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownOrder
	}
	current := o.Status
	c.mu.Unlock()

	out := make(map[order.Status]bool, len(order.StatusOrder())+1)
	for _, s := range order.StatusOrder() {
		out[s] = order.CanTransition(current, s)
	}
	out[order.StatusCancelled] = order.CanTransition(current, order.StatusCancelled)
	return out, nil
}

// Transition moves the cached order to next through the remote API.
//
// The engine rules are checked against the cached status before anything
// else: a disallowed move is refused without a network call. The confirm
// callback then has to approve the move; declining leaves the order
// untouched. At most one update per order may be in flight at a time, while
// updates on unrelated orders proceed independently. The cache is only
// touched after the remote update succeeds; on failure the pre-attempt
// status keeps being displayed and the attempt may simply be retried.
func (c *Console) Transition(ctx context.Context, id string, next order.Status, confirm ConfirmFunc) error {
	c.mu.Lock()
	o, ok := c.orders[id]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownOrder
	}
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return ErrUpdateInFlight
	}

	current := o.Status
	if !order.CanTransition(current, next) {
		c.mu.Unlock()
		return errors.Wrapf(ErrTransitionNotAllowed, "%s -> %s", current, next)
	}

	snapshot := *o
	c.inflight[id] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}()

	if confirm != nil && !confirm(&snapshot, next) {
		return ErrConfirmationDeclined
	}

	updateCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.UpdateStatus(updateCtx, id, next); err != nil {
		c.lg.Warn("status update failed",
			zap.String("order_id", id),
			zap.String("from", current.String()),
			zap.String("to", next.String()),
			zap.Error(err),
		)
		return errors.Wrapf(err, "update order %s", id)
	}

	c.mu.Lock()
	if cached, ok := c.orders[id]; ok {
		cached.Status = next
		cached.UpdatedAt = time.Now()
	}
	c.mu.Unlock()

	c.lg.Info("order status updated",
		zap.String("order_id", id),
		zap.String("from", current.String()),
		zap.String("to", next.String()),
	)
	return nil
}
