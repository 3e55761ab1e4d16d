package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// NewRouter creates a chi router with all storefront routes registered.
// Cart mutation routes are rate limited per session by limiter.
func NewRouter(
	catalog Catalog,
	sessions Sessions,
	healthHandler *health.Handler,
	limiter *middleware.RateLimiter,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	productHandler := NewProductHandler(catalog, logger)
	quickViewHandler := NewQuickViewHandler(sessions, logger)
	cartHandler := NewCartHandler(sessions, logger)

	r.Route("/api/v1/storefront", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Session())

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{handle}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore())

			r.Post("/quickview", quickViewHandler.Open)
			r.Get("/quickview", quickViewHandler.Get)
			r.Delete("/quickview", quickViewHandler.Close)
			r.Post("/quickview/events", quickViewHandler.PageEvent)
			r.Put("/quickview/variant", quickViewHandler.SelectVariant)
			r.Put("/quickview/options", quickViewHandler.SelectOption)
			r.Put("/quickview/image", quickViewHandler.SelectImage)

			r.Get("/cart", cartHandler.GetCart)
			r.Put("/cart/gift-card-input", cartHandler.SetGiftCardInput)
			r.Get("/cart/mutations/{key}", cartHandler.GetMutation)

			r.Group(func(r chi.Router) {
				r.Use(limiter.Handler)

				r.Post("/quickview/add", quickViewHandler.Add)
				r.Post("/cart/lines", cartHandler.AddLine)
				r.Put("/cart/discount-codes", cartHandler.SetDiscountCodes)
				r.Post("/cart/discount-codes", cartHandler.ApplyDiscountCode)
				r.Delete("/cart/discount-codes", cartHandler.RemoveDiscountCodes)
				r.Post("/cart/gift-cards", cartHandler.AddGiftCard)
				r.Delete("/cart/gift-cards/{id}", cartHandler.RemoveGiftCard)
			})
		})
	})

	return r
}
