// Package fetcher loads product detail asynchronously with request
// supersession: only the most recently requested fetch may be applied.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_product_fetches_total",
		Help: "Product detail fetches by outcome.",
	}, []string{"outcome"})

	supersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_product_fetch_superseded_total",
		Help: "Product detail completions dropped because a newer fetch was issued.",
	})
)

// Source loads one product's full detail.
type Source interface {
	ProductByHandle(ctx context.Context, handle string) (domain.Product, error)
}

// Result is the outcome of one fetch generation. When Err is nil the
// product holds at least one variant.
type Result struct {
	Generation uint64
	Handle     string
	Product    domain.Product
	Err        error
}

// State is the observable accessor state.
type State struct {
	Generation uint64
	Handle     string
	Loading    bool
	Product    *domain.Product
	Err        error
}

// Fetcher runs product fetches in the background. Each Fetch starts a new
// generation; completions of older generations are dropped.
type Fetcher struct {
	source  Source
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// New creates a Fetcher. timeout bounds every fetch; zero means 10s.
func New(source Source, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, timeout: timeout, logger: logger}
}

// Fetch starts loading handle and returns the generation it was issued
// under. Any in-flight fetch is superseded and its transport call cancelled.
// done is invoked once, outside the fetcher's lock, only if the fetch is
// still current when it completes. The fetch outlives ctx's cancellation but
// keeps its values (trace, logger fields).
func (f *Fetcher) Fetch(ctx context.Context, handle string, done func(Result)) uint64 {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.state = State{Generation: f.state.Generation + 1, Handle: handle, Loading: true}
	gen := f.state.Generation
	f.cancel = cancel
	f.mu.Unlock()

	go f.run(fetchCtx, cancel, gen, handle, done)
	return gen
}

func (f *Fetcher) run(ctx context.Context, cancel context.CancelFunc, gen uint64, handle string, done func(Result)) {
	defer cancel()

	product, err := f.source.ProductByHandle(ctx, handle)
	if err == nil && len(product.Variants) == 0 {
		err = apperrors.InvalidResponse("product " + handle + " has no variants")
	}
	res := Result{Generation: gen, Handle: handle, Product: product, Err: err}

	f.mu.Lock()
	if f.state.Generation != gen {
		f.mu.Unlock()
		supersededTotal.Inc()
		f.logger.DebugContext(ctx, "dropping superseded product fetch",
			slog.String("handle", handle),
			slog.Uint64("generation", gen),
		)
		return
	}
	f.state.Loading = false
	if err != nil {
		f.state.Err = err
	} else {
		p := product
		f.state.Product = &p
	}
	f.cancel = nil
	f.mu.Unlock()

	if err != nil {
		fetchesTotal.WithLabelValues(apperrors.Kind(err)).Inc()
		f.logger.WarnContext(ctx, "product fetch failed",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
	} else {
		fetchesTotal.WithLabelValues("ok").Inc()
	}

	if done != nil {
		done(res)
	}
}

// Cancel supersedes any in-flight fetch without starting a new one and
// resets the accessor state.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state = State{Generation: f.state.Generation + 1}
}

// Snapshot returns a copy of the current state.
func (f *Fetcher) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	if s.Product != nil {
		p := *s.Product
		s.Product = &p
	}
	return s
}

// Current reports whether gen is still the latest generation.
func (f *Fetcher) Current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Generation == gen
}
