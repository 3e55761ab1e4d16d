package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_VariantByID(t *testing.T) {
	p := Product{Variants: teeVariants()}

	v, ok := p.VariantByID("v-l")
	require.True(t, ok)
	assert.Equal(t, "L / Black", v.Title)

	_, ok = p.VariantByID("missing")
	assert.False(t, ok)
}

func TestProduct_ImageIndex(t *testing.T) {
	p := Product{Images: []Image{{ID: "img-1"}, {ID: "img-2"}}}
	assert.Equal(t, 1, p.ImageIndex("img-2"))
	assert.Equal(t, -1, p.ImageIndex("img-3"))
	assert.Equal(t, -1, p.ImageIndex(""))
}

func TestProduct_HasOption(t *testing.T) {
	p := Product{Options: []Option{{Name: "Size", Values: []string{"S", "M"}}}}
	assert.True(t, p.HasOption("Size", "M"))
	assert.False(t, p.HasOption("Size", "XL"))
	assert.False(t, p.HasOption("Color", "M"))
}

func TestBadge(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{nil, ""},
		{[]string{"cotton", "summer"}, ""},
		{[]string{"cotton", "New"}, "NEW"},
		{[]string{"Just Dropped", "sale"}, "JUST DROPPED"},
		{[]string{"limited"}, "LIMITED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Badge(tt.tags), "tags %v", tt.tags)
	}
}

func TestNewProductCard(t *testing.T) {
	p := Product{
		ID:               "gid://shopify/Product/1",
		Handle:           "tee-black",
		Title:            "Tee",
		AvailableForSale: true,
		Tags:             []string{"bestseller"},
		Variants: []Variant{
			{ID: "v-1", AvailableForSale: false, Price: Money{Amount: "20.0", CurrencyCode: "USD"}},
			{ID: "v-2", AvailableForSale: true, Price: Money{Amount: "25.0", CurrencyCode: "USD"}},
		},
		Images:     []Image{{ID: "img-1", URL: "https://cdn.example.com/1.jpg"}},
		PriceRange: PriceRange{MinVariantPrice: Money{Amount: "20.0", CurrencyCode: "USD"}},
	}

	card := NewProductCard(p)
	assert.Equal(t, "v-2", card.VariantID)
	assert.Equal(t, "25.0", card.Price.Amount)
	assert.Equal(t, "BESTSELLER", card.Badge)
	require.NotNil(t, card.Image)
	assert.Equal(t, "img-1", card.Image.ID)
}

func TestNewProductCard_NoVariantsUsesMinPrice(t *testing.T) {
	p := Product{
		Handle:     "gift",
		PriceRange: PriceRange{MinVariantPrice: Money{Amount: "10.0", CurrencyCode: "EUR"}},
	}
	card := NewProductCard(p)
	assert.Empty(t, card.VariantID)
	assert.Equal(t, Money{Amount: "10.0", CurrencyCode: "EUR"}, card.Price)
	assert.Nil(t, card.Image)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "25.00 USD", Money{Amount: "25.00", CurrencyCode: "USD"}.String())
	assert.Equal(t, "", Money{}.String())
}
