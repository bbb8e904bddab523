package client

import (
	"fmt"
	"strconv"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

const productFields = `
	id
	handle
	title
	description
	descriptionHtml
	tags
	priceRange {
		minVariantPrice { amount currencyCode }
		maxVariantPrice { amount currencyCode }
	}
	images(first: 50) {
		edges { node { id url altText } }
	}
	options { id name values }
	variants(first: 100) {
		edges {
			node {
				id
				title
				availableForSale
				price { amount currencyCode }
				selectedOptions { name value }
			}
		}
	}
`

var listProductsQuery = fmt.Sprintf(`
query ListProducts($first: Int!, $after: String, $query: String) {
	products(first: $first, after: $after, query: $query) {
		pageInfo { hasNextPage endCursor }
		edges { node { %s } }
	}
}`, productFields)

var getProductQuery = fmt.Sprintf(`
query GetProduct($id: ID!) {
	product(id: $id) { %s }
}`, productFields)

var getProductByHandleQuery = fmt.Sprintf(`
query GetProductByHandle($handle: String!) {
	productByHandle(handle: $handle) { %s }
}`, productFields)

const productUpdateMutation = `
mutation ProductUpdate($input: ProductInput!) {
	productUpdate(input: $input) {
		product { id }
		userErrors { field message }
	}
}`

const variantsBulkUpdateMutation = `
mutation VariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkUpdate(productId: $productId, variants: $variants) {
		productVariants { id }
		userErrors { field message }
	}
}`

const optionsUpdateMutation = `
mutation OptionsUpdate($productId: ID!, $options: [OptionInput!]!) {
	productOptionsUpdate(productId: $productId, options: $options) {
		userErrors { field message }
	}
}`

const createMediaMutation = `
mutation CreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
	productCreateMedia(productId: $productId, media: $media) {
		media { id alt }
		userErrors: mediaUserErrors { field message }
	}
}`

const deleteMediaMutation = `
mutation DeleteMedia($productId: ID!, $mediaIds: [ID!]!) {
	productDeleteMedia(productId: $productId, mediaIds: $mediaIds) {
		deletedMediaIds
		userErrors: mediaUserErrors { field message }
	}
}`

const productDeleteMutation = `
mutation ProductDelete($input: ProductDeleteInput!) {
	productDelete(input: $input) {
		deletedProductId
		userErrors { field message }
	}
}`

const cartCreateMutation = `
mutation CartCreate($input: CartInput!) {
	cartCreate(input: $input) {
		cart { checkoutUrl }
		userErrors { field message }
	}
}`

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func (m moneyNode) toModel() (model.Money, error) {
	if m.Amount == "" {
		return model.Money{CurrencyCode: m.CurrencyCode}, nil
	}
	amount, err := strconv.ParseFloat(m.Amount, 64)
	if err != nil {
		return model.Money{}, fmt.Errorf("parse amount %q: %w", m.Amount, err)
	}
	return model.Money{Amount: amount, CurrencyCode: m.CurrencyCode}, nil
}

type productNode struct {
	ID              string   `json:"id"`
	Handle          string   `json:"handle"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Tags            []string `json:"tags"`
	PriceRange      struct {
		MinVariantPrice moneyNode `json:"minVariantPrice"`
		MaxVariantPrice moneyNode `json:"maxVariantPrice"`
	} `json:"priceRange"`
	Images struct {
		Edges []struct {
			Node struct {
				ID      string  `json:"id"`
				URL     string  `json:"url"`
				AltText *string `json:"altText"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Options []struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Values []string `json:"values"`
	} `json:"options"`
	Variants struct {
		Edges []struct {
			Node struct {
				ID               string    `json:"id"`
				Title            string    `json:"title"`
				AvailableForSale bool      `json:"availableForSale"`
				Price            moneyNode `json:"price"`
				SelectedOptions  []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"selectedOptions"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (n productNode) toModel() (model.CatalogProduct, error) {
	p := model.CatalogProduct{
		ID:              n.ID,
		Handle:          n.Handle,
		Title:           n.Title,
		Description:     n.Description,
		DescriptionHTML: n.DescriptionHTML,
		Tags:            n.Tags,
	}
	var err error
	if p.PriceRange.Min, err = n.PriceRange.MinVariantPrice.toModel(); err != nil {
		return p, fmt.Errorf("product %s: %w", n.ID, err)
	}
	if p.PriceRange.Max, err = n.PriceRange.MaxVariantPrice.toModel(); err != nil {
		return p, fmt.Errorf("product %s: %w", n.ID, err)
	}
	for _, e := range n.Images.Edges {
		p.Images = append(p.Images, model.Image{ID: e.Node.ID, URL: e.Node.URL, AltText: e.Node.AltText})
	}
	for _, o := range n.Options {
		p.Options = append(p.Options, model.ProductOption{ID: o.ID, Name: o.Name, Values: o.Values})
	}
	for _, e := range n.Variants.Edges {
		price, err := e.Node.Price.toModel()
		if err != nil {
			return p, fmt.Errorf("variant %s: %w", e.Node.ID, err)
		}
		v := model.CatalogVariant{
			ID:               e.Node.ID,
			Title:            e.Node.Title,
			AvailableForSale: e.Node.AvailableForSale,
			Price:            price,
		}
		for _, so := range e.Node.SelectedOptions {
			v.SelectedOptions = append(v.SelectedOptions, model.SelectedOption{Name: so.Name, Value: so.Value})
		}
		p.Variants = append(p.Variants, v)
	}
	return p, nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
