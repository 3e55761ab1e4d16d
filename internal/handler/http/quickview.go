package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/quickview"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// Sessions resolves the shopper session of a request.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

func requestSession(r *http.Request, sessions Sessions) (*session.Session, error) {
	return sessions.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
}

// QuickViewHandler handles HTTP requests for the product quick view.
type QuickViewHandler struct {
	sessions Sessions
	logger   *slog.Logger
}

// NewQuickViewHandler creates a new quick view HTTP handler.
func NewQuickViewHandler(sessions Sessions, logger *slog.Logger) *QuickViewHandler {
	return &QuickViewHandler{sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// OpenQuickViewRequest is the JSON request body for opening the quick view.
type OpenQuickViewRequest struct {
	Handle string `json:"handle" validate:"required,handle"`
}

// PageEventRequest is the JSON request body for a page event.
type PageEventRequest struct {
	Kind page.EventKind `json:"kind" validate:"required,oneof=keydown overlay_click"`
	Key  string         `json:"key,omitempty" validate:"max=32"`
}

// PageEventResponse reports how many handlers saw the event and the
// resulting quick view state.
type PageEventResponse struct {
	Delivered int             `json:"delivered"`
	QuickView quickview.State `json:"quick_view"`
}

// SelectVariantRequest is the JSON request body for selecting a variant.
type SelectVariantRequest struct {
	VariantID string `json:"variant_id" validate:"required,max=255"`
}

// SelectOptionRequest is the JSON request body for selecting an option value.
type SelectOptionRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Value string `json:"value" validate:"required,max=255"`
}

// SelectImageRequest is the JSON request body for selecting a gallery image.
type SelectImageRequest struct {
	Index int `json:"index"`
}

// --- Handlers ---

// Open handles POST /api/v1/storefront/quickview
func (h *QuickViewHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenQuickViewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	state, err := s.QuickView.Open(r.Context(), req.Handle)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if state.Phase == quickview.PhaseLoading {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: state})
}

// Get handles GET /api/v1/storefront/quickview
func (h *QuickViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.QuickView.State()})
}

// Close handles DELETE /api/v1/storefront/quickview
func (h *QuickViewHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	s.QuickView.Close()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.QuickView.State()})
}

// PageEvent handles POST /api/v1/storefront/quickview/events
func (h *QuickViewHandler) PageEvent(w http.ResponseWriter, r *http.Request) {
	var req PageEventRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	delivered := s.Bus.Publish(page.Event{Kind: req.Kind, Key: req.Key})
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: PageEventResponse{
		Delivered: delivered,
		QuickView: s.QuickView.State(),
	}})
}

// SelectVariant handles PUT /api/v1/storefront/quickview/variant
func (h *QuickViewHandler) SelectVariant(w http.ResponseWriter, r *http.Request) {
	var req SelectVariantRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.respond(w, r, func(c *quickview.Controller) (quickview.State, error) {
		return c.SelectVariant(req.VariantID)
	})
}

// SelectOption handles PUT /api/v1/storefront/quickview/options
func (h *QuickViewHandler) SelectOption(w http.ResponseWriter, r *http.Request) {
	var req SelectOptionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.respond(w, r, func(c *quickview.Controller) (quickview.State, error) {
		return c.SelectOption(req.Name, req.Value)
	})
}

// SelectImage handles PUT /api/v1/storefront/quickview/image
func (h *QuickViewHandler) SelectImage(w http.ResponseWriter, r *http.Request) {
	var req SelectImageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.respond(w, r, func(c *quickview.Controller) (quickview.State, error) {
		return c.SelectImage(req.Index)
	})
}

// Add handles POST /api/v1/storefront/quickview/add
func (h *QuickViewHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(c *quickview.Controller) (quickview.State, error) {
		return c.RequestAdd(r.Context())
	})
}

func (h *QuickViewHandler) respond(w http.ResponseWriter, r *http.Request, fn func(*quickview.Controller) (quickview.State, error)) {
	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	state, err := fn(s.QuickView)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}
