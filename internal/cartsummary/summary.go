// Package cartsummary renders the cart snapshot for display and hosts the
// discount and gift card forms that feed the mutation dispatcher.
package cartsummary

import (
	"github.com/utafrali/storefront/internal/cartmutation"
	"github.com/utafrali/storefront/internal/domain"
)

// Placeholder is shown for a missing amount.
const Placeholder = "-"

// giftCardMask prefixes the visible last characters of a gift card code.
const giftCardMask = "***"

// Summary is the rendered cart.
type Summary struct {
	CartID        string     `json:"cart_id,omitempty"`
	Subtotal      string     `json:"subtotal"`
	Total         string     `json:"total"`
	TotalQuantity int        `json:"total_quantity"`
	Lines         []Line     `json:"lines"`
	DiscountCodes []string   `json:"discount_codes"`
	GiftCards     []GiftCard `json:"gift_cards"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
	Pending       Pending    `json:"pending"`
}

// Line is a rendered cart line.
type Line struct {
	ID            string `json:"id"`
	MerchandiseID string `json:"merchandise_id"`
	Title         string `json:"title"`
	Quantity      int    `json:"quantity"`
	Cost          string `json:"cost"`
}

// GiftCard is an applied gift card with its code masked.
type GiftCard struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	AmountUsed string `json:"amount_used"`
}

// Pending carries optimistic hints derived from in-flight mutations.
type Pending struct {
	AddingQuantity    int  `json:"adding_quantity"`
	DiscountsUpdating bool `json:"discounts_updating"`
	GiftCardAdding    bool `json:"gift_card_adding"`
	GiftCardRemoving  bool `json:"gift_card_removing"`
}

// Render renders cart with the optimistic effect of the pending statuses.
// Only discount codes the backend marked applicable are listed, gift cards
// being removed are hidden, and the checkout link is omitted until the
// backend provides one.
func Render(cart *domain.Cart, pending []cartmutation.Status) Summary {
	s := Summary{
		Subtotal:      Placeholder,
		Total:         Placeholder,
		Lines:         []Line{},
		DiscountCodes: []string{},
		GiftCards:     []GiftCard{},
	}

	removing := map[string]bool{}
	for _, st := range pending {
		switch in := st.Intent.(type) {
		case domain.AddLine:
			s.Pending.AddingQuantity += in.Quantity
		case domain.SetDiscountCodes:
			s.Pending.DiscountsUpdating = true
		case domain.AddGiftCard:
			s.Pending.GiftCardAdding = true
		case domain.RemoveGiftCard:
			s.Pending.GiftCardRemoving = true
			removing[in.ID] = true
		}
	}

	if cart == nil {
		s.TotalQuantity = s.Pending.AddingQuantity
		return s
	}

	s.CartID = cart.ID
	s.CheckoutURL = cart.CheckoutURL
	s.TotalQuantity = cart.TotalQuantity + s.Pending.AddingQuantity
	s.Subtotal = formatMoney(cart.Subtotal)
	s.Total = formatMoney(cart.Total)

	for _, l := range cart.Lines {
		title := l.ProductTitle
		if l.VariantTitle != "" && l.VariantTitle != "Default Title" {
			title += " - " + l.VariantTitle
		}
		s.Lines = append(s.Lines, Line{
			ID:            l.ID,
			MerchandiseID: l.MerchandiseID,
			Title:         title,
			Quantity:      l.Quantity,
			Cost:          formatMoney(l.Cost),
		})
	}

	s.DiscountCodes = append(s.DiscountCodes, cart.ApplicableDiscountCodes()...)

	for _, gc := range cart.AppliedGiftCards {
		if removing[gc.ID] {
			continue
		}
		s.GiftCards = append(s.GiftCards, GiftCard{
			ID:         gc.ID,
			Code:       giftCardMask + gc.LastCharacters,
			AmountUsed: gc.AmountUsed.String(),
		})
	}
	return s
}

func formatMoney(m *domain.Money) string {
	if m == nil || m.Amount == "" {
		return Placeholder
	}
	return m.String()
}
