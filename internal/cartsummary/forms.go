package cartsummary

import (
	"context"
	"strings"
	"sync"

	"github.com/utafrali/storefront/internal/cartmutation"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Submitter is the part of the dispatcher the forms use.
type Submitter interface {
	Submit(ctx context.Context, key string, intent domain.Intent) (cartmutation.Status, error)
	Status(key string) cartmutation.Status
	Cart() *domain.Cart
	Subscribe(fn func(cartmutation.Status)) (unsubscribe func())
}

// GiftCardFormView is the rendered gift card form.
type GiftCardFormView struct {
	Code     string `json:"code"`
	Disabled bool   `json:"disabled"`
	Error    string `json:"error,omitempty"`
}

// GiftCardForm holds the bound gift card input. The input is cleared when a
// gift-card-add mutation settles successfully and kept when it fails.
type GiftCardForm struct {
	submitter Submitter

	mu      sync.Mutex
	code    string
	lastErr string

	unsubscribe func()
}

// NewGiftCardForm binds a form to the dispatcher's gift-card-add key.
func NewGiftCardForm(s Submitter) *GiftCardForm {
	f := &GiftCardForm{submitter: s}
	f.unsubscribe = s.Subscribe(f.onStatus)
	return f
}

func (f *GiftCardForm) onStatus(st cartmutation.Status) {
	if st.Key != domain.GiftCardAddKey || st.Phase != cartmutation.PhaseSettled {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st.Succeeded() {
		f.code = ""
		f.lastErr = ""
		return
	}
	f.lastErr = st.ErrorMessage
}

// SetCode updates the bound input.
func (f *GiftCardForm) SetCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code = code
}

// Code returns the bound input.
func (f *GiftCardForm) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// Submit applies the bound code under the gift-card-add key.
func (f *GiftCardForm) Submit(ctx context.Context) (cartmutation.Status, error) {
	f.mu.Lock()
	code := strings.TrimSpace(f.code)
	if code == "" {
		f.mu.Unlock()
		return cartmutation.Status{}, apperrors.InvalidInput("gift card code is required")
	}
	f.lastErr = ""
	f.mu.Unlock()
	return f.submitter.Submit(ctx, domain.GiftCardAddKey, domain.AddGiftCard{Code: code})
}

// Remove removes an applied gift card on the default key.
func (f *GiftCardForm) Remove(ctx context.Context, id string) (cartmutation.Status, error) {
	return f.submitter.Submit(ctx, domain.DefaultMutationKey, domain.RemoveGiftCard{ID: id})
}

// View renders the form. It is disabled while gift-card-add is submitting.
func (f *GiftCardForm) View() GiftCardFormView {
	disabled := f.submitter.Status(domain.GiftCardAddKey).Phase == cartmutation.PhaseSubmitting
	f.mu.Lock()
	defer f.mu.Unlock()
	return GiftCardFormView{Code: f.code, Disabled: disabled, Error: f.lastErr}
}

// Close detaches the form from the dispatcher.
func (f *GiftCardForm) Close() {
	f.unsubscribe()
}

// DiscountForm submits discount code changes. Every update carries the full
// desired code set.
type DiscountForm struct {
	submitter Submitter
}

// NewDiscountForm creates a discount form.
func NewDiscountForm(s Submitter) *DiscountForm {
	return &DiscountForm{submitter: s}
}

// Apply resubmits the applicable codes plus code.
func (f *DiscountForm) Apply(ctx context.Context, code string) (cartmutation.Status, error) {
	if strings.TrimSpace(code) == "" {
		return cartmutation.Status{}, apperrors.InvalidInput("discount code is required")
	}
	codes := domain.DiscountCodesWith(f.submitter.Cart(), code)
	return f.submitter.Submit(ctx, domain.DefaultMutationKey, domain.SetDiscountCodes{Codes: codes})
}

// Set replaces the code set with codes.
func (f *DiscountForm) Set(ctx context.Context, codes []string) (cartmutation.Status, error) {
	if codes == nil {
		codes = []string{}
	}
	return f.submitter.Submit(ctx, domain.DefaultMutationKey, domain.SetDiscountCodes{Codes: codes})
}

// Remove clears every discount code on the cart.
func (f *DiscountForm) Remove(ctx context.Context) (cartmutation.Status, error) {
	return f.submitter.Submit(ctx, domain.DefaultMutationKey, domain.SetDiscountCodes{Codes: []string{}})
}
