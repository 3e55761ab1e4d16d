package domain

// Cart is the authoritative cart snapshot returned by the commerce backend.
// A settled mutation replaces the whole snapshot; fields are never merged.
type Cart struct {
	ID               string            `json:"id"`
	CheckoutURL      string            `json:"checkout_url,omitempty"`
	TotalQuantity    int               `json:"total_quantity"`
	Subtotal         *Money            `json:"subtotal,omitempty"`
	Total            *Money            `json:"total,omitempty"`
	Lines            []CartLine        `json:"lines"`
	DiscountCodes    []DiscountCode    `json:"discount_codes"`
	AppliedGiftCards []AppliedGiftCard `json:"applied_gift_cards"`
}

// CartLine is one merchandise line of the cart.
type CartLine struct {
	ID            string `json:"id"`
	MerchandiseID string `json:"merchandise_id"`
	ProductTitle  string `json:"product_title,omitempty"`
	VariantTitle  string `json:"variant_title,omitempty"`
	Quantity      int    `json:"quantity"`
	Cost          *Money `json:"cost,omitempty"`
}

// DiscountCode is a code submitted to the cart. Applicable is the backend's
// verdict on whether the code currently takes effect.
type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

// AppliedGiftCard is a gift card redeemed against the cart.
type AppliedGiftCard struct {
	ID             string `json:"id"`
	LastCharacters string `json:"last_characters"`
	AmountUsed     Money  `json:"amount_used"`
}

// ApplicableDiscountCodes returns the codes the backend marked applicable.
func (c *Cart) ApplicableDiscountCodes() []string {
	if c == nil {
		return nil
	}
	var codes []string
	for _, dc := range c.DiscountCodes {
		if dc.Applicable {
			codes = append(codes, dc.Code)
		}
	}
	return codes
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Subtotal != nil {
		s := *c.Subtotal
		out.Subtotal = &s
	}
	if c.Total != nil {
		t := *c.Total
		out.Total = &t
	}
	out.Lines = append([]CartLine(nil), c.Lines...)
	for i := range out.Lines {
		if out.Lines[i].Cost != nil {
			cost := *out.Lines[i].Cost
			out.Lines[i].Cost = &cost
		}
	}
	out.DiscountCodes = append([]DiscountCode(nil), c.DiscountCodes...)
	out.AppliedGiftCards = append([]AppliedGiftCard(nil), c.AppliedGiftCards...)
	return &out
}
