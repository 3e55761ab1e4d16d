package domain

import "strings"

// Money is an amount in a currency. Amount is kept as the backend's decimal
// string so no precision is lost in transit.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// String renders money as "amount currency". Richer formatting is left to clients.
func (m Money) String() string {
	return strings.TrimSpace(m.Amount + " " + m.CurrencyCode)
}

// Option is a product option such as "Size" with its ordered values.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// SelectedOption is the value a variant takes for one product option.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Image is a product image. A variant references its image by ID.
type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
	Width   *int   `json:"width,omitempty"`
	Height  *int   `json:"height,omitempty"`
}

// Variant is one purchasable configuration of a product.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"available_for_sale"`
	Price            Money            `json:"price"`
	CompareAtPrice   *Money           `json:"compare_at_price,omitempty"`
	SelectedOptions  []SelectedOption `json:"selected_options"`
	ImageID          string           `json:"image_id,omitempty"`
}

// PriceRange carries the minimum variant price used as a display fallback.
type PriceRange struct {
	MinVariantPrice Money `json:"min_variant_price"`
}

// Product is a product's full detail. A Product value is never mutated after
// decoding; every fetch yields a new value.
type Product struct {
	ID               string     `json:"id"`
	Handle           string     `json:"handle"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	AvailableForSale bool       `json:"available_for_sale"`
	Tags             []string   `json:"tags,omitempty"`
	Options          []Option   `json:"options"`
	Variants         []Variant  `json:"variants"`
	Images           []Image    `json:"images"`
	PriceRange       PriceRange `json:"price_range"`
}

// VariantByID returns the variant with the given ID.
func (p *Product) VariantByID(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// ImageIndex returns the position of the image with the given ID, or -1.
func (p *Product) ImageIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, img := range p.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// SelectionFor returns the option selections that identify v.
func (p *Product) SelectionFor(v Variant) map[string]string {
	sel := make(map[string]string, len(v.SelectedOptions))
	for _, so := range v.SelectedOptions {
		sel[so.Name] = so.Value
	}
	return sel
}

// HasOption reports whether the product defines option name with value.
func (p *Product) HasOption(name, value string) bool {
	for _, o := range p.Options {
		if o.Name != name {
			continue
		}
		for _, v := range o.Values {
			if v == value {
				return true
			}
		}
	}
	return false
}

// badgeTags are the product tags surfaced as a listing badge.
var badgeTags = map[string]struct{}{
	"new":          {},
	"bestseller":   {},
	"just-dropped": {},
	"limited":      {},
	"sale":         {},
}

// Badge returns the first badge-worthy tag in upper case, or "".
func Badge(tags []string) string {
	for _, t := range tags {
		key := strings.Join(strings.Fields(strings.ToLower(t)), "-")
		if _, ok := badgeTags[key]; ok {
			return strings.ToUpper(t)
		}
	}
	return ""
}

// ProductCard is the listing projection of a product.
type ProductCard struct {
	ID               string `json:"id"`
	Handle           string `json:"handle"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"available_for_sale"`
	Badge            string `json:"badge,omitempty"`
	Price            Money  `json:"price"`
	VariantID        string `json:"variant_id,omitempty"`
	Image            *Image `json:"image,omitempty"`
}

// NewProductCard projects p for a product grid. The price and add-to-cart
// variant come from the first available variant, falling back to the
// minimum variant price when the product has no variants loaded.
func NewProductCard(p Product) ProductCard {
	card := ProductCard{
		ID:               p.ID,
		Handle:           p.Handle,
		Title:            p.Title,
		AvailableForSale: p.AvailableForSale,
		Badge:            Badge(p.Tags),
		Price:            p.PriceRange.MinVariantPrice,
	}
	if v, err := MatchVariant(p.Variants, nil); err == nil {
		card.Price = v.Price
		card.VariantID = v.ID
	}
	if len(p.Images) > 0 {
		img := p.Images[0]
		card.Image = &img
	}
	return card
}
