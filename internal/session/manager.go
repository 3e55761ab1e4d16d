// Package session keeps the per-shopper page state: quick view, cart
// mutation dispatcher, page event bus, scroll lock and the cart forms.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/cartmutation"
	"github.com/utafrali/storefront/internal/cartsummary"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/fetcher"
	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/quickview"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// Session is one shopper's page state.
type Session struct {
	ID        string
	Bus       *page.Bus
	Scroll    *page.ScrollLock
	QuickView *quickview.Controller
	Cart      *cartmutation.Dispatcher
	GiftCard  *cartsummary.GiftCardForm
	Discounts *cartsummary.DiscountForm

	lastSeen time.Time
}

// Summary renders the session's cart with its pending mutations.
func (s *Session) Summary() cartsummary.Summary {
	return cartsummary.Render(s.Cart.Cart(), s.Cart.Pending())
}

func (s *Session) close() {
	s.QuickView.Close()
	s.GiftCard.Close()
}

// Config configures a Manager. Store and Events are optional.
type Config struct {
	Products        fetcher.Source
	Backend         cartmutation.Backend
	Store           repository.CartSnapshotRepository
	Events          cartmutation.EventPublisher
	FetchTimeout    time.Duration
	MutationTimeout time.Duration
	TTL             time.Duration
	Logger          *slog.Logger
}

// Manager creates sessions on first use and evicts idle ones.
type Manager struct {
	cfg     Config
	logger  *slog.Logger
	nowFunc func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A zero TTL means 30 minutes.
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		nowFunc:  time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it when absent. A new session's
// cart is seeded from the snapshot store; a store failure starts it empty.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.nowFunc()
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	initial := m.loadSnapshot(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have created it while the snapshot was loading.
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.nowFunc()
		return s, nil
	}
	s := m.newSession(id, initial)
	m.sessions[id] = s
	sessionsActive.Inc()
	logger.WithContext(ctx, m.logger).DebugContext(ctx, "session created",
		slog.String("session_id", id),
	)
	return s, nil
}

func (m *Manager) loadSnapshot(ctx context.Context, id string) *domain.Cart {
	if m.cfg.Store == nil {
		return nil
	}
	cart, err := m.cfg.Store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.WithContext(ctx, m.logger).WarnContext(ctx, "failed to load cart snapshot",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return cart
}

func (m *Manager) newSession(id string, initial *domain.Cart) *Session {
	log := m.logger.With(slog.String("session_id", id))
	bus := page.NewBus()
	scroll := &page.ScrollLock{}
	dispatcher := cartmutation.New(cartmutation.Options{
		SessionID: id,
		Backend:   m.cfg.Backend,
		Store:     m.cfg.Store,
		Events:    m.cfg.Events,
		Timeout:   m.cfg.MutationTimeout,
		Initial:   initial,
		Logger:    log,
	})
	add := func(ctx context.Context, intent domain.AddLine) error {
		_, err := dispatcher.Submit(ctx, domain.DefaultMutationKey, intent)
		return err
	}
	return &Session{
		ID:        id,
		Bus:       bus,
		Scroll:    scroll,
		QuickView: quickview.New(fetcher.New(m.cfg.Products, m.cfg.FetchTimeout, log), bus, scroll, add, log),
		Cart:      dispatcher,
		GiftCard:  cartsummary.NewGiftCardForm(dispatcher),
		Discounts: cartsummary.NewDiscountForm(dispatcher),
		lastSeen:  m.nowFunc(),
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions every TTL/2 until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.TTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// evicted. Sessions with a mutation in flight are kept.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	now := m.nowFunc()
	var evicted []*Session
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) <= m.cfg.TTL || len(s.Cart.Pending()) > 0 {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, s)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.close()
		sessionsActive.Dec()
		sessionsEvictedTotal.Inc()
		m.logger.Debug("session evicted", slog.String("session_id", s.ID))
	}
	return len(evicted)
}

// Shutdown closes every session and waits for in-flight mutations to settle
// or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	dispatchers := make([]*cartmutation.Dispatcher, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		dispatchers = append(dispatchers, s.Cart)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
		sessionsActive.Dec()
	}

	done := make(chan struct{})
	go func() {
		for _, d := range dispatchers {
			d.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
