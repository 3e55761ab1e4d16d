package domain

import (
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// Mutation keys name independent cart mutation channels.
const (
	DefaultMutationKey = "cart"
	GiftCardAddKey     = "gift-card-add"
)

// Intent kinds as carried on the wire and in events.
const (
	KindAddLine          = "add_line"
	KindSetDiscountCodes = "set_discount_codes"
	KindAddGiftCard      = "add_gift_card"
	KindRemoveGiftCard   = "remove_gift_card"
)

// Intent is a cart mutation request. Implementations are the four intent
// types of this package.
type Intent interface {
	Kind() string
	isIntent()
}

// AddLine adds quantity units of a variant to the cart.
type AddLine struct {
	MerchandiseID string `json:"merchandise_id" validate:"required,max=255"`
	Quantity      int    `json:"quantity" validate:"gte=1,lte=250"`
}

// SetDiscountCodes replaces the cart's discount code set. Codes is the full
// desired set, never a delta.
type SetDiscountCodes struct {
	Codes []string `json:"codes" validate:"max=25,dive,required,max=255,printascii"`
}

// AddGiftCard redeems a gift card code.
type AddGiftCard struct {
	Code string `json:"code" validate:"required,max=255,printascii"`
}

// RemoveGiftCard removes an applied gift card by ID.
type RemoveGiftCard struct {
	ID string `json:"id" validate:"required,max=255"`
}

func (AddLine) Kind() string          { return KindAddLine }
func (SetDiscountCodes) Kind() string { return KindSetDiscountCodes }
func (AddGiftCard) Kind() string      { return KindAddGiftCard }
func (RemoveGiftCard) Kind() string   { return KindRemoveGiftCard }

func (AddLine) isIntent()          {}
func (SetDiscountCodes) isIntent() {}
func (AddGiftCard) isIntent()      {}
func (RemoveGiftCard) isIntent()   {}

// ValidateIntent checks the intent's fields and returns an InvalidInput error
// describing the first problem.
func ValidateIntent(intent Intent) error {
	if intent == nil {
		return apperrors.InvalidInput("intent is required")
	}
	if err := validator.Validate(intent); err != nil {
		return apperrors.InvalidInput(intent.Kind() + ": " + err.Error())
	}
	return nil
}

// ValidKey reports whether key is usable as a mutation key.
func ValidKey(key string) bool {
	return key != "" && len(key) <= 64 && strings.TrimSpace(key) == key
}

// DiscountCodesWith returns the applicable codes of cart plus code, keeping
// the full-replace contract for discount updates.
func DiscountCodesWith(cart *Cart, code string) []string {
	code = strings.TrimSpace(code)
	codes := cart.ApplicableDiscountCodes()
	for _, c := range codes {
		if strings.EqualFold(c, code) {
			return codes
		}
	}
	return append(codes, code)
}

// DiscountCodesWithout returns the applicable codes of cart minus code.
func DiscountCodesWithout(cart *Cart, code string) []string {
	codes := []string{}
	for _, c := range cart.ApplicableDiscountCodes() {
		if !strings.EqualFold(c, code) {
			codes = append(codes, c)
		}
	}
	return codes
}
