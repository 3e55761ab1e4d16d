// Package quickview implements the product quick view state machine:
// Closed -> Loading -> Ready | Failed, back to Closed on close.
package quickview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/fetcher"
	"github.com/utafrali/storefront/internal/page"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AddFunc emits the add-to-cart intent. A non-nil error keeps the view open.
type AddFunc func(ctx context.Context, intent domain.AddLine) error

// Controller owns one shopper's quick view. All transitions are serialised by
// mu; listeners are called after the lock is released.
type Controller struct {
	fetcher *fetcher.Fetcher
	bus     *page.Bus
	scroll  *page.ScrollLock
	add     AddFunc
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	release  func()
	unsubs   []func()
	nextSub  uint64
	watchers map[uint64]func(State)
}

// New creates a closed controller.
func New(f *fetcher.Fetcher, bus *page.Bus, scroll *page.ScrollLock, add AddFunc, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher:  f,
		bus:      bus,
		scroll:   scroll,
		add:      add,
		logger:   logger,
		state:    State{Phase: PhaseClosed},
		watchers: make(map[uint64]func(State)),
	}
}

// Open shows the quick view for handle. Opening the handle already shown is
// a no-op; a different handle re-enters Loading and supersedes the pending
// fetch.
func (c *Controller) Open(ctx context.Context, handle string) (State, error) {
	if handle == "" {
		return c.State(), apperrors.InvalidInput("handle is required")
	}

	c.mu.Lock()
	if c.state.Phase != PhaseClosed && c.state.Handle == handle {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, nil
	}

	if c.state.Phase == PhaseClosed {
		c.release = c.scroll.Acquire()
		c.unsubs = append(c.unsubs,
			c.bus.Subscribe(page.KeyDown, func(ev page.Event) {
				if ev.Key == page.KeyEscape {
					c.Close()
				}
			}),
			c.bus.Subscribe(page.OverlayClick, func(page.Event) { c.Close() }),
		)
	}

	c.state = State{Version: c.state.Version + 1, Phase: PhaseLoading, Handle: handle}
	// Fetch under the lock so the completion cannot observe a stale gen.
	c.gen = c.fetcher.Fetch(ctx, handle, c.onFetched)
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "quick view loading", slog.String("handle", handle))
	c.notify(s)
	return s, nil
}

func (c *Controller) onFetched(res fetcher.Result) {
	c.mu.Lock()
	if c.state.Phase != PhaseLoading || res.Generation != c.gen {
		c.mu.Unlock()
		return
	}

	next := State{Version: c.state.Version + 1, Handle: c.state.Handle}
	if res.Err != nil {
		next.Phase = PhaseFailed
		next.Err = res.Err
	} else if v, err := domain.MatchVariant(res.Product.Variants, nil); err != nil {
		next.Phase = PhaseFailed
		next.Err = err
	} else {
		p := res.Product
		next.Phase = PhaseReady
		next.Product = &p
		next.SelectedVariant = &v
	}
	c.state = next
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("quick view settled",
		slog.String("handle", s.Handle),
		slog.String("phase", string(s.Phase)),
	)
	c.notify(s)
}

// Close returns the view to Closed from any phase, releasing the scroll lock
// and page registrations. Closing a closed view does nothing.
func (c *Controller) Close() {
	c.closeIf(func(State) bool { return true })
}

// closeIfVersion closes the view only while it is still at version v.
func (c *Controller) closeIfVersion(v uint64) {
	c.closeIf(func(s State) bool { return s.Version == v })
}

func (c *Controller) closeIf(match func(State) bool) {
	c.mu.Lock()
	if c.state.Phase == PhaseClosed || !match(c.state) {
		c.mu.Unlock()
		return
	}
	c.state = State{Version: c.state.Version + 1, Phase: PhaseClosed}
	c.gen = 0
	c.fetcher.Cancel()
	release, unsubs := c.release, c.unsubs
	c.release, c.unsubs = nil, nil
	s := c.snapshotLocked()
	c.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if release != nil {
		release()
	}
	c.logger.Debug("quick view closed")
	c.notify(s)
}

// SelectVariant selects the variant with id. An unknown id leaves the state
// unchanged. The image selection is not touched.
func (c *Controller) SelectVariant(id string) (State, error) {
	return c.update(func(s *State) error {
		v, ok := s.Product.VariantByID(id)
		if !ok {
			c.logger.Debug("ignoring unknown variant", slog.String("variant_id", id))
			return errNoChange
		}
		s.SelectedVariant = &v
		return nil
	})
}

// SelectOption replaces one option value of the current selection and
// re-matches the variant.
func (c *Controller) SelectOption(name, value string) (State, error) {
	return c.update(func(s *State) error {
		if !s.Product.HasOption(name, value) {
			return apperrors.InvalidInput("unknown option " + name + "=" + value)
		}
		sel := map[string]string{}
		if s.SelectedVariant != nil {
			sel = s.Product.SelectionFor(*s.SelectedVariant)
		}
		sel[name] = value
		v, err := domain.MatchVariant(s.Product.Variants, sel)
		if err != nil {
			return err
		}
		s.SelectedVariant = &v
		return nil
	})
}

// SelectImage selects the image at index, clamped to the product's images.
func (c *Controller) SelectImage(index int) (State, error) {
	return c.update(func(s *State) error {
		idx := clampIndex(index, len(s.Product.Images))
		if idx == s.SelectedImageIndex {
			return errNoChange
		}
		s.SelectedImageIndex = idx
		return nil
	})
}

// RequestAdd emits AddLine for the selected variant with quantity 1 and
// closes the view it was issued from. It requires Ready and an available variant. When the emit
// fails the view stays open and the error is returned.
func (c *Controller) RequestAdd(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseReady || c.state.SelectedVariant == nil {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, errNotReady
	}
	if !c.state.SelectedVariant.AvailableForSale {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, apperrors.Conflict("selected variant is not available for sale")
	}
	intent := domain.AddLine{MerchandiseID: c.state.SelectedVariant.ID, Quantity: 1}
	version := c.state.Version
	c.mu.Unlock()

	if err := c.add(ctx, intent); err != nil {
		c.logger.WarnContext(ctx, "add to cart rejected",
			slog.String("merchandise_id", intent.MerchandiseID),
			slog.String("error", err.Error()),
		)
		return c.State(), err
	}
	// A view reopened or changed while the add was in flight is left alone.
	c.closeIfVersion(version)
	return c.State(), nil
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive every state after a transition.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

var (
	errNotReady = apperrors.Conflict("quick view is not ready")
	errNoChange = apperrors.Conflict("no change")
)

// update applies fn to a copy of the Ready state and commits it.
func (c *Controller) update(fn func(s *State) error) (State, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseReady {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, errNotReady
	}

	next := c.state
	if err := fn(&next); err != nil {
		s := c.snapshotLocked()
		c.mu.Unlock()
		if err == errNoChange {
			return s, nil
		}
		return s, err
	}
	next.Version++
	c.state = next
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(s)
	return s, nil
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Product != nil {
		p := *s.Product
		s.Product = &p
	}
	if s.SelectedVariant != nil {
		v := *s.SelectedVariant
		s.SelectedVariant = &v
	}
	s.derive()
	return s
}

func (c *Controller) notify(s State) {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
