package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/cartmutation"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/storefront"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	sessions       *session.Manager
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client for cart snapshots.
	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPass
	redisCfg.DB = cfg.RedisDB
	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Storefront API client behind a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.ProductFetchTimeout
	breakerCfg := httpclient.DefaultCircuitBreakerConfig("storefront")
	breakerCfg.Timeout = cfg.BreakerTimeout
	breakerCfg.FailureRatio = cfg.BreakerFailureRatio
	breakerCfg.MinRequests = cfg.BreakerMinRequests
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), breakerCfg, logger)
	client := storefront.NewClient(storefront.Config{
		Token:   cfg.StorefrontToken,
		Domain:  cfg.StorefrontDomain,
		Version: cfg.StorefrontVersion,
	}, doer, logger)
	if !client.Configured() {
		logger.Warn("storefront credentials not configured; storefront calls will fail",
			slog.String("endpoint", client.Endpoint()),
		)
	}

	// Settled mutation events are optional.
	var (
		producer *pkgkafka.Producer
		events   cartmutation.EventPublisher
	)
	if cfg.CartEventsEnabled {
		if err := pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers); err != nil {
			logger.Warn("kafka brokers unreachable; settled mutation events will be dropped until they recover",
				slog.String("error", err.Error()),
			)
		}
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	sessions := session.NewManager(session.Config{
		Products:        client,
		Backend:         client,
		Store:           redisrepo.NewCartSnapshotRepository(rdb, cfg.SnapshotTTL()),
		Events:          events,
		FetchTimeout:    cfg.ProductFetchTimeout,
		MutationTimeout: cfg.CartMutationTimeout,
		TTL:             cfg.SessionTTL,
		Logger:          logger,
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", database.RedisHealthCheck(rdb))
	healthHandler.RegisterNonCritical("storefront", client.Ping)
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	corsCfg := middleware.NewCORSConfig(cfg.Environment, cfg.CORSAllowedOrigins)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	router := handler.NewRouter(client, sessions, healthHandler, limiter, corsCfg, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		sessions:       sessions,
		limiter:        limiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the session sweeper, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sessions.Run(sweepCtx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Sessions (let submitted cart mutations settle and persist)
// 3. Tracer (flush pending spans)
// 4. Kafka producer
// 5. Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.limiter.Stop()

	if err := a.sessions.Shutdown(ctx); err != nil {
		a.logger.Error("cart mutations did not settle before shutdown", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
