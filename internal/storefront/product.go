package storefront

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type gqlMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type gqlImage struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
}

type gqlVariant struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	AvailableForSale *bool                   `json:"availableForSale"`
	Price            *gqlMoney               `json:"price"`
	CompareAtPrice   *gqlMoney               `json:"compareAtPrice"`
	SelectedOptions  []domain.SelectedOption `json:"selectedOptions"`
	Image            *gqlImage               `json:"image"`
}

type gqlProduct struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Handle           string          `json:"handle"`
	Description      string          `json:"description"`
	AvailableForSale *bool           `json:"availableForSale"`
	Tags             []string        `json:"tags"`
	Options          []domain.Option `json:"options"`
	PriceRange       *struct {
		MinVariantPrice *gqlMoney `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images *struct {
		Nodes []gqlImage `json:"nodes"`
	} `json:"images"`
	Variants *struct {
		Nodes []gqlVariant `json:"nodes"`
	} `json:"variants"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products    []domain.Product
	EndCursor   string
	HasNextPage bool
}

// ProductByHandle fetches the full detail of one product. A product the
// backend does not know yields NotFound; a payload missing required fields
// or carrying no variants yields InvalidResponse.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (domain.Product, error) {
	var data struct {
		Product *gqlProduct `json:"product"`
	}
	if err := c.execute(ctx, "QuickViewProduct", productQuery, map[string]any{"handle": handle}, &data); err != nil {
		return domain.Product{}, err
	}
	if data.Product == nil {
		return domain.Product{}, apperrors.NotFound("product", handle)
	}
	return decodeProduct(data.Product, true)
}

// Products fetches one page of the listing, newest first.
func (c *Client) Products(ctx context.Context, first int, after string) (ProductPage, error) {
	vars := map[string]any{"first": first}
	if after != "" {
		vars["after"] = after
	}
	var data struct {
		Products *struct {
			Nodes    []gqlProduct `json:"nodes"`
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	}
	if err := c.execute(ctx, "AllProducts", productsQuery, vars, &data); err != nil {
		return ProductPage{}, err
	}
	if data.Products == nil {
		return ProductPage{}, apperrors.InvalidResponse("products is missing")
	}

	page := ProductPage{
		Products:    make([]domain.Product, 0, len(data.Products.Nodes)),
		HasNextPage: data.Products.PageInfo.HasNextPage,
	}
	if data.Products.PageInfo.EndCursor != nil {
		page.EndCursor = *data.Products.PageInfo.EndCursor
	}
	for i := range data.Products.Nodes {
		p, err := decodeProduct(&data.Products.Nodes[i], false)
		if err != nil {
			return ProductPage{}, err
		}
		page.Products = append(page.Products, p)
	}
	return page, nil
}

// decodeProduct converts the wire product into the domain model, checking
// every required field. Listing payloads may legitimately carry no variants.
func decodeProduct(g *gqlProduct, requireVariants bool) (domain.Product, error) {
	missing := func(field string) error {
		return apperrors.InvalidResponse(fmt.Sprintf("product %s is missing", field))
	}

	switch {
	case g.ID == "":
		return domain.Product{}, missing("id")
	case g.Handle == "":
		return domain.Product{}, missing("handle")
	case g.Title == "":
		return domain.Product{}, missing("title")
	case g.AvailableForSale == nil:
		return domain.Product{}, missing("availableForSale")
	case g.Options == nil:
		return domain.Product{}, missing("options")
	case g.PriceRange == nil || g.PriceRange.MinVariantPrice == nil:
		return domain.Product{}, missing("priceRange.minVariantPrice")
	case g.Images == nil:
		return domain.Product{}, missing("images")
	case g.Variants == nil:
		return domain.Product{}, missing("variants")
	}

	minPrice, err := decodeMoney(g.PriceRange.MinVariantPrice, "priceRange.minVariantPrice")
	if err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:               g.ID,
		Handle:           g.Handle,
		Title:            g.Title,
		Description:      g.Description,
		AvailableForSale: *g.AvailableForSale,
		Tags:             g.Tags,
		Options:          g.Options,
		PriceRange:       domain.PriceRange{MinVariantPrice: minPrice},
		Images:           make([]domain.Image, 0, len(g.Images.Nodes)),
		Variants:         make([]domain.Variant, 0, len(g.Variants.Nodes)),
	}

	for i := range g.Images.Nodes {
		img, err := decodeImage(&g.Images.Nodes[i], fmt.Sprintf("images[%d]", i))
		if err != nil {
			return domain.Product{}, err
		}
		p.Images = append(p.Images, img)
	}

	for i := range g.Variants.Nodes {
		v, err := decodeVariant(&p, &g.Variants.Nodes[i], fmt.Sprintf("variants[%d]", i))
		if err != nil {
			return domain.Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}

	if requireVariants && len(p.Variants) == 0 {
		return domain.Product{}, apperrors.InvalidResponse(fmt.Sprintf("product %s has no variants", g.Handle))
	}
	return p, nil
}

// decodeVariant converts a wire variant. A variant image that is not among
// the product's first images is appended so the reference stays resolvable.
func decodeVariant(p *domain.Product, g *gqlVariant, path string) (domain.Variant, error) {
	if g.ID == "" {
		return domain.Variant{}, apperrors.InvalidResponse(fmt.Sprintf("product %s.id is missing", path))
	}
	if g.AvailableForSale == nil {
		return domain.Variant{}, apperrors.InvalidResponse(fmt.Sprintf("product %s.availableForSale is missing", path))
	}
	price, err := decodeMoney(g.Price, path+".price")
	if err != nil {
		return domain.Variant{}, err
	}

	v := domain.Variant{
		ID:               g.ID,
		Title:            g.Title,
		AvailableForSale: *g.AvailableForSale,
		Price:            price,
		SelectedOptions:  g.SelectedOptions,
	}
	if g.CompareAtPrice != nil {
		cmp, err := decodeMoney(g.CompareAtPrice, path+".compareAtPrice")
		if err != nil {
			return domain.Variant{}, err
		}
		v.CompareAtPrice = &cmp
	}
	if g.Image != nil {
		img, err := decodeImage(g.Image, path+".image")
		if err != nil {
			return domain.Variant{}, err
		}
		if p.ImageIndex(img.ID) < 0 {
			p.Images = append(p.Images, img)
		}
		v.ImageID = img.ID
	}
	return v, nil
}

func decodeImage(g *gqlImage, path string) (domain.Image, error) {
	if g.ID == "" || g.URL == "" {
		return domain.Image{}, apperrors.InvalidResponse(fmt.Sprintf("product %s is missing id or url", path))
	}
	img := domain.Image{ID: g.ID, URL: g.URL, Width: g.Width, Height: g.Height}
	if g.AltText != nil {
		img.AltText = *g.AltText
	}
	return img, nil
}

func decodeMoney(g *gqlMoney, path string) (domain.Money, error) {
	if g == nil || strings.TrimSpace(g.Amount) == "" || g.CurrencyCode == "" {
		return domain.Money{}, apperrors.InvalidResponse(fmt.Sprintf("%s is missing amount or currency", path))
	}
	return domain.Money{Amount: g.Amount, CurrencyCode: g.CurrencyCode}, nil
}
