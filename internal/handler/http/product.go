package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storefront"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// Catalog reads products from the storefront backend.
type Catalog interface {
	Products(ctx context.Context, first int, after string) (storefront.ProductPage, error)
	ProductByHandle(ctx context.Context, handle string) (domain.Product, error)
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(catalog Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ListProducts handles GET /api/v1/storefront/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	page, err := h.catalog.Products(r.Context(), params.First, params.After)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cards := make([]domain.ProductCard, 0, len(page.Products))
	for _, p := range page.Products {
		cards = append(cards, domain.NewProductCard(p))
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(cards, page.EndCursor, page.HasNextPage))
}

// GetProduct handles GET /api/v1/storefront/products/{handle}. Loosely typed
// handles are normalized first.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	handle := slug.Normalize(chi.URLParam(r, "handle"))
	if !slug.IsHandle(handle) {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product handle: "+chi.URLParam(r, "handle")), h.logger)
		return
	}

	product, err := h.catalog.ProductByHandle(r.Context(), handle)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}
