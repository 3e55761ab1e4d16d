// Package cartmutation dispatches cart mutation intents through one channel
// with a per-key in-flight guard.
package cartmutation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// Backend applies an intent to the cart and returns the new snapshot.
type Backend interface {
	MutateCart(ctx context.Context, cartID string, intent domain.Intent) (*domain.Cart, error)
}

// EventPublisher announces settled mutations.
type EventPublisher interface {
	PublishMutationSettled(ctx context.Context, correlationID string, data event.MutationSettledData) error
}

// Options configures a Dispatcher. Store and Events are optional.
type Options struct {
	SessionID string
	Backend   Backend
	Store     repository.CartSnapshotRepository
	Events    EventPublisher
	Timeout   time.Duration
	Initial   *domain.Cart
	Logger    *slog.Logger
}

// Dispatcher submits cart mutations for one shopper session. At most one
// mutation per key is in flight; keys are independent. A successful
// settlement replaces the whole cart snapshot; a failure leaves it intact.
type Dispatcher struct {
	sessionID string
	backend   Backend
	store     repository.CartSnapshotRepository
	events    EventPublisher
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	cart     *domain.Cart
	statuses map[string]Status
	nextSub  uint64
	watchers map[uint64]func(Status)

	wg sync.WaitGroup
}

// New creates a Dispatcher seeded with opts.Initial.
func New(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		sessionID: opts.SessionID,
		backend:   opts.Backend,
		store:     opts.Store,
		events:    opts.Events,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		now:       time.Now,
		cart:      opts.Initial.Clone(),
		statuses:  make(map[string]Status),
		watchers:  make(map[uint64]func(Status)),
	}
}

// Submit starts intent under key and returns the submitting status. A key
// that is already submitting yields Busy and the pending mutation is not
// affected. Invalid intents are rejected with InvalidInput without touching
// the key's status.
func (d *Dispatcher) Submit(ctx context.Context, key string, intent domain.Intent) (Status, error) {
	if !domain.ValidKey(key) {
		return Status{}, apperrors.InvalidInput("invalid mutation key")
	}
	if err := domain.ValidateIntent(intent); err != nil {
		return Status{}, err
	}

	d.mu.Lock()
	if cur, ok := d.statuses[key]; ok && cur.Phase == PhaseSubmitting {
		d.mu.Unlock()
		busyRejectionsTotal.WithLabelValues(key).Inc()
		logger.WithContext(ctx, d.logger).DebugContext(ctx, "rejecting busy mutation key",
			slog.String("key", key),
			slog.String("intent", intent.Kind()),
		)
		return cur.clone(), apperrors.Busy(key)
	}

	submitted := d.now()
	st := Status{
		Key:         key,
		Phase:       PhaseSubmitting,
		Intent:      intent,
		IntentKind:  intent.Kind(),
		SubmittedAt: &submitted,
	}
	d.statuses[key] = st
	cartID := ""
	if d.cart != nil {
		cartID = d.cart.ID
	}
	d.wg.Add(1)
	d.mu.Unlock()

	mutationsInFlight.Inc()
	d.notify(st)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	go func() {
		defer d.wg.Done()
		defer cancel()
		d.run(runCtx, key, cartID, intent, submitted)
	}()
	return st.clone(), nil
}

func (d *Dispatcher) run(ctx context.Context, key, cartID string, intent domain.Intent, submitted time.Time) {
	cart, err := d.backend.MutateCart(ctx, cartID, intent)
	if err == nil && cart == nil {
		err = apperrors.InvalidResponse("cart mutation returned no cart")
	}
	settled := d.now()

	d.mu.Lock()
	st := d.statuses[key]
	st.Phase = PhaseSettled
	st.SettledAt = &settled
	if err != nil {
		st.Err = err
	} else {
		d.cart = cart.Clone()
		st.Cart = cart
	}
	d.statuses[key] = st
	out := st.clone()
	d.mu.Unlock()

	mutationsInFlight.Dec()
	log := logger.WithContext(ctx, d.logger)
	outcome := event.OutcomeSucceeded
	if err != nil {
		outcome = event.OutcomeFailed
		mutationsTotal.WithLabelValues(intent.Kind(), apperrors.Kind(err)).Inc()
		log.WarnContext(ctx, "cart mutation failed",
			slog.String("key", key),
			slog.String("intent", intent.Kind()),
			slog.String("error", err.Error()),
		)
	} else {
		mutationsTotal.WithLabelValues(intent.Kind(), "ok").Inc()
		log.DebugContext(ctx, "cart mutation settled",
			slog.String("key", key),
			slog.String("intent", intent.Kind()),
			slog.String("cart_id", cart.ID),
		)
		d.persist(ctx, cart)
	}
	d.publish(ctx, out, outcome, settled.Sub(submitted))
	d.notify(out)
}

// persist saves the snapshot; failures only cost restart durability.
func (d *Dispatcher) persist(ctx context.Context, cart *domain.Cart) {
	if d.store == nil || d.sessionID == "" {
		return
	}
	if err := d.store.Save(ctx, d.sessionID, cart); err != nil {
		logger.WithContext(ctx, d.logger).WarnContext(ctx, "failed to save cart snapshot",
			slog.String("error", err.Error()),
		)
	}
}

func (d *Dispatcher) publish(ctx context.Context, st Status, outcome string, took time.Duration) {
	if d.events == nil {
		return
	}
	data := event.MutationSettledData{
		SessionID:  d.sessionID,
		Key:        st.Key,
		IntentKind: st.IntentKind,
		Outcome:    outcome,
		ErrorKind:  st.ErrorKind,
		Duration:   took,
	}
	if st.Cart != nil {
		data.CartID = st.Cart.ID
		data.TotalQuantity = st.Cart.TotalQuantity
	}
	if err := d.events.PublishMutationSettled(ctx, logger.CorrelationIDFromContext(ctx), data); err != nil {
		logger.WithContext(ctx, d.logger).WarnContext(ctx, "failed to publish mutation settled event",
			slog.String("key", st.Key),
			slog.String("error", err.Error()),
		)
	}
}

// Status returns the key's status without consuming it.
func (d *Dispatcher) Status(key string) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.statuses[key]; ok {
		return st.clone()
	}
	return idleStatus(key)
}

// Observe returns the key's status and, when it is settled, resets the key
// to idle so the result is delivered once.
func (d *Dispatcher) Observe(key string) Status {
	d.mu.Lock()
	st, ok := d.statuses[key]
	if !ok {
		d.mu.Unlock()
		return idleStatus(key)
	}
	if st.Phase == PhaseSettled {
		delete(d.statuses, key)
	}
	out := st.clone()
	d.mu.Unlock()

	if st.Phase == PhaseSettled {
		d.notify(idleStatus(key))
	}
	return out
}

// Pending returns the statuses of all keys currently submitting.
func (d *Dispatcher) Pending() []Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Status
	for _, st := range d.statuses {
		if st.Phase == PhaseSubmitting {
			out = append(out, st.clone())
		}
	}
	return out
}

// Cart returns a copy of the current cart snapshot, or nil before the first
// successful mutation.
func (d *Dispatcher) Cart() *domain.Cart {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cart.Clone()
}

// Subscribe registers fn to receive every status transition.
func (d *Dispatcher) Subscribe(fn func(Status)) (unsubscribe func()) {
	d.mu.Lock()
	d.nextSub++
	id := d.nextSub
	d.watchers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.watchers, id)
		d.mu.Unlock()
	}
}

// Wait blocks until every submitted mutation has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) notify(st Status) {
	d.mu.Lock()
	fns := make([]func(Status), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
