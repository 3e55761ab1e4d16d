package quickview

import (
	"errors"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Phase is the quick view lifecycle phase.
type Phase string

const (
	PhaseClosed  Phase = "closed"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// User-visible failure messages.
const (
	msgNotFound   = "Could not load product"
	msgLoadFailed = "Failed to load product"
)

// State is a snapshot of the quick view. SelectedVariant, when present, is
// always one of Product's variants. Version grows with every transition so
// listeners can discard out-of-order deliveries.
type State struct {
	Version            uint64          `json:"version"`
	Phase              Phase           `json:"phase"`
	Handle             string          `json:"handle,omitempty"`
	Product            *domain.Product `json:"product,omitempty"`
	SelectedVariant    *domain.Variant `json:"selected_variant,omitempty"`
	SelectedImageIndex int             `json:"selected_image_index"`
	Err                error           `json:"-"`

	// Derived for rendering.
	ErrorKind    string        `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	DisplayPrice *domain.Money `json:"display_price,omitempty"`
	CurrentImage *domain.Image `json:"current_image,omitempty"`
	CanAdd       bool          `json:"can_add"`
}

// derive fills the rendering fields from the core state.
func (s *State) derive() {
	s.ErrorKind, s.ErrorMessage = "", ""
	s.DisplayPrice, s.CurrentImage, s.CanAdd = nil, nil, false

	switch s.Phase {
	case PhaseFailed:
		s.ErrorKind = apperrors.Kind(s.Err)
		s.ErrorMessage = msgLoadFailed
		if errors.Is(s.Err, apperrors.ErrNotFound) {
			s.ErrorMessage = msgNotFound
		}
	case PhaseReady:
		if s.SelectedVariant != nil {
			price := s.SelectedVariant.Price
			s.DisplayPrice = &price
			s.CanAdd = s.SelectedVariant.AvailableForSale
		} else {
			price := s.Product.PriceRange.MinVariantPrice
			s.DisplayPrice = &price
		}
		if n := len(s.Product.Images); n > 0 && s.SelectedImageIndex < n {
			img := s.Product.Images[s.SelectedImageIndex]
			s.CurrentImage = &img
		}
	}
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
