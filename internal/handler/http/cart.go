package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/cartmutation"
	"github.com/utafrali/storefront/internal/cartsummary"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	sessions Sessions
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sessions Sessions, logger *slog.Logger) *CartHandler {
	return &CartHandler{sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// AddLineRequest is the JSON request body for adding a line to the cart.
// Key defaults to the shared cart key.
type AddLineRequest struct {
	MerchandiseID string `json:"merchandise_id" validate:"required,max=255"`
	Quantity      int    `json:"quantity" validate:"gte=1,lte=250"`
	Key           string `json:"key,omitempty" validate:"omitempty,max=64"`
}

// SetDiscountCodesRequest replaces the whole discount code set.
type SetDiscountCodesRequest struct {
	Codes []string `json:"codes" validate:"max=25,dive,required,max=255"`
}

// ApplyDiscountCodeRequest adds one code to the applicable set.
type ApplyDiscountCodeRequest struct {
	Code string `json:"code" validate:"required,max=255"`
}

// GiftCardInputRequest updates the bound gift card input.
type GiftCardInputRequest struct {
	Code string `json:"code" validate:"max=255"`
}

// AddGiftCardRequest submits the gift card form. An empty code submits the
// bound input.
type AddGiftCardRequest struct {
	Code string `json:"code,omitempty" validate:"max=255"`
}

// --- Response DTOs ---

// CartResponse is the rendered cart with the gift card form.
type CartResponse struct {
	Summary      cartsummary.Summary          `json:"summary"`
	GiftCardForm cartsummary.GiftCardFormView `json:"gift_card_form"`
}

// MutationResponse is the status of a submitted or observed mutation.
type MutationResponse struct {
	Mutation cartmutation.Status `json:"mutation"`
	Summary  cartsummary.Summary `json:"summary"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/storefront/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CartResponse{
		Summary:      s.Summary(),
		GiftCardForm: s.GiftCard.View(),
	}})
}

// AddLine handles POST /api/v1/storefront/cart/lines
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	key := req.Key
	if key == "" {
		key = domain.DefaultMutationKey
	}
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		return s.Cart.Submit(r.Context(), key, domain.AddLine{MerchandiseID: req.MerchandiseID, Quantity: req.Quantity})
	})
}

// SetDiscountCodes handles PUT /api/v1/storefront/cart/discount-codes
func (h *CartHandler) SetDiscountCodes(w http.ResponseWriter, r *http.Request) {
	var req SetDiscountCodesRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		return s.Discounts.Set(r.Context(), req.Codes)
	})
}

// ApplyDiscountCode handles POST /api/v1/storefront/cart/discount-codes
func (h *CartHandler) ApplyDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req ApplyDiscountCodeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		return s.Discounts.Apply(r.Context(), req.Code)
	})
}

// RemoveDiscountCodes handles DELETE /api/v1/storefront/cart/discount-codes
func (h *CartHandler) RemoveDiscountCodes(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		return s.Discounts.Remove(r.Context())
	})
}

// SetGiftCardInput handles PUT /api/v1/storefront/cart/gift-card-input
func (h *CartHandler) SetGiftCardInput(w http.ResponseWriter, r *http.Request) {
	var req GiftCardInputRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	s.GiftCard.SetCode(req.Code)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.GiftCard.View()})
}

// AddGiftCard handles POST /api/v1/storefront/cart/gift-cards
func (h *CartHandler) AddGiftCard(w http.ResponseWriter, r *http.Request) {
	var req AddGiftCardRequest
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		if code := strings.TrimSpace(req.Code); code != "" {
			s.GiftCard.SetCode(code)
		}
		return s.GiftCard.Submit(r.Context())
	})
}

// RemoveGiftCard handles DELETE /api/v1/storefront/cart/gift-cards/{id}
func (h *CartHandler) RemoveGiftCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("gift card id is required"), h.logger)
		return
	}
	h.submit(w, r, func(s *session.Session) (cartmutation.Status, error) {
		return s.GiftCard.Remove(r.Context(), id)
	})
}

// GetMutation handles GET /api/v1/storefront/cart/mutations/{key}. A settled
// result is delivered once and the key returns to idle; ?peek=true reads it
// without consuming.
func (h *CartHandler) GetMutation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !domain.ValidKey(key) {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid mutation key"), h.logger)
		return
	}

	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var st cartmutation.Status
	if r.URL.Query().Get("peek") == "true" {
		st = s.Cart.Status(key)
	} else {
		st = s.Cart.Observe(key)
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MutationResponse{
		Mutation: st,
		Summary:  s.Summary(),
	}})
}

// submit starts a mutation and answers 202 with its submitting status.
func (h *CartHandler) submit(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (cartmutation.Status, error)) {
	s, err := requestSession(r, h.sessions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	st, err := fn(s)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: MutationResponse{
		Mutation: st,
		Summary:  s.Summary(),
	}})
}
