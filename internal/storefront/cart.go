package storefront

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type gqlCart struct {
	ID            string  `json:"id"`
	CheckoutURL   *string `json:"checkoutUrl"`
	TotalQuantity int     `json:"totalQuantity"`
	Cost          *struct {
		SubtotalAmount *gqlMoney `json:"subtotalAmount"`
		TotalAmount    *gqlMoney `json:"totalAmount"`
	} `json:"cost"`
	Lines *struct {
		Nodes []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
			Cost     *struct {
				TotalAmount *gqlMoney `json:"totalAmount"`
			} `json:"cost"`
			Merchandise *struct {
				ID      string `json:"id"`
				Title   string `json:"title"`
				Product *struct {
					Title string `json:"title"`
				} `json:"product"`
			} `json:"merchandise"`
		} `json:"nodes"`
	} `json:"lines"`
	DiscountCodes    []domain.DiscountCode `json:"discountCodes"`
	AppliedGiftCards []struct {
		ID             string    `json:"id"`
		LastCharacters string    `json:"lastCharacters"`
		AmountUsed     *gqlMoney `json:"amountUsed"`
	} `json:"appliedGiftCards"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartMutationPayload struct {
	Cart       *gqlCart    `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

// mutation names the GraphQL operation for an intent.
type mutation struct {
	operation string
	field     string
	query     string
	vars      map[string]any
}

// MutateCart applies intent to the cart identified by cartID and returns the
// backend's authoritative snapshot. With no cartID the cart is created with
// the intent applied as its initial input.
func (c *Client) MutateCart(ctx context.Context, cartID string, intent domain.Intent) (*domain.Cart, error) {
	m, err := buildMutation(cartID, intent)
	if err != nil {
		return nil, err
	}

	var data map[string]json.RawMessage
	if err := c.execute(ctx, m.operation, m.query, m.vars, &data); err != nil {
		return nil, err
	}
	raw, ok := data[m.field]
	if !ok || string(raw) == "null" {
		return nil, apperrors.InvalidResponse(m.field + " payload is missing")
	}

	var payload cartMutationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.InvalidResponse(fmt.Sprintf("decode %s payload: %v", m.field, err))
	}
	if len(payload.UserErrors) > 0 {
		return nil, apperrors.InvalidInput(payload.UserErrors[0].Message)
	}
	if payload.Cart == nil {
		return nil, apperrors.InvalidResponse(m.field + " returned no cart")
	}
	return decodeCart(payload.Cart)
}

func buildMutation(cartID string, intent domain.Intent) (mutation, error) {
	if cartID == "" {
		input := map[string]any{}
		switch in := intent.(type) {
		case domain.AddLine:
			input["lines"] = []map[string]any{{"merchandiseId": in.MerchandiseID, "quantity": in.Quantity}}
		case domain.SetDiscountCodes:
			input["discountCodes"] = nonNil(in.Codes)
		case domain.AddGiftCard:
			input["giftCardCodes"] = []string{in.Code}
		case domain.RemoveGiftCard:
			return mutation{}, apperrors.InvalidInput("no cart to remove a gift card from")
		default:
			return mutation{}, apperrors.InvalidInput(fmt.Sprintf("unsupported intent %T", intent))
		}
		return mutation{
			operation: "CartCreate",
			field:     "cartCreate",
			query:     cartCreateMutation,
			vars:      map[string]any{"input": input},
		}, nil
	}

	switch in := intent.(type) {
	case domain.AddLine:
		return mutation{
			operation: "CartLinesAdd",
			field:     "cartLinesAdd",
			query:     cartLinesAddMutation,
			vars: map[string]any{
				"cartId": cartID,
				"lines":  []map[string]any{{"merchandiseId": in.MerchandiseID, "quantity": in.Quantity}},
			},
		}, nil
	case domain.SetDiscountCodes:
		return mutation{
			operation: "CartDiscountCodesUpdate",
			field:     "cartDiscountCodesUpdate",
			query:     cartDiscountCodesUpdateMutation,
			vars:      map[string]any{"cartId": cartID, "discountCodes": nonNil(in.Codes)},
		}, nil
	case domain.AddGiftCard:
		return mutation{
			operation: "CartGiftCardCodesAdd",
			field:     "cartGiftCardCodesAdd",
			query:     cartGiftCardCodesAddMutation,
			vars:      map[string]any{"cartId": cartID, "giftCardCodes": []string{in.Code}},
		}, nil
	case domain.RemoveGiftCard:
		return mutation{
			operation: "CartGiftCardCodesRemove",
			field:     "cartGiftCardCodesRemove",
			query:     cartGiftCardCodesRemoveMutation,
			vars:      map[string]any{"cartId": cartID, "appliedGiftCardIds": []string{in.ID}},
		}, nil
	default:
		return mutation{}, apperrors.InvalidInput(fmt.Sprintf("unsupported intent %T", intent))
	}
}

func decodeCart(g *gqlCart) (*domain.Cart, error) {
	if g.ID == "" {
		return nil, apperrors.InvalidResponse("cart id is missing")
	}

	cart := &domain.Cart{
		ID:               g.ID,
		TotalQuantity:    g.TotalQuantity,
		Lines:            []domain.CartLine{},
		DiscountCodes:    []domain.DiscountCode{},
		AppliedGiftCards: []domain.AppliedGiftCard{},
	}
	if g.CheckoutURL != nil {
		cart.CheckoutURL = *g.CheckoutURL
	}
	if g.Cost != nil {
		cart.Subtotal = optionalMoney(g.Cost.SubtotalAmount)
		cart.Total = optionalMoney(g.Cost.TotalAmount)
	}

	if g.Lines != nil {
		for _, n := range g.Lines.Nodes {
			line := domain.CartLine{ID: n.ID, Quantity: n.Quantity}
			if n.Merchandise != nil {
				line.MerchandiseID = n.Merchandise.ID
				line.VariantTitle = n.Merchandise.Title
				if n.Merchandise.Product != nil {
					line.ProductTitle = n.Merchandise.Product.Title
				}
			}
			if n.Cost != nil {
				line.Cost = optionalMoney(n.Cost.TotalAmount)
			}
			cart.Lines = append(cart.Lines, line)
		}
	}

	cart.DiscountCodes = append(cart.DiscountCodes, g.DiscountCodes...)

	for i, gc := range g.AppliedGiftCards {
		if gc.ID == "" {
			return nil, apperrors.InvalidResponse(fmt.Sprintf("cart appliedGiftCards[%d].id is missing", i))
		}
		applied := domain.AppliedGiftCard{ID: gc.ID, LastCharacters: gc.LastCharacters}
		if m := optionalMoney(gc.AmountUsed); m != nil {
			applied.AmountUsed = *m
		}
		cart.AppliedGiftCards = append(cart.AppliedGiftCards, applied)
	}
	return cart, nil
}

func optionalMoney(g *gqlMoney) *domain.Money {
	if g == nil || g.Amount == "" {
		return nil
	}
	return &domain.Money{Amount: g.Amount, CurrencyCode: g.CurrencyCode}
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
