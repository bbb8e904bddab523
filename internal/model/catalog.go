package model

// Catalog records are owned by the catalog service. The cache and the merge
// layer only hold read-only copies.

type Money struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
}

type PriceRange struct {
	Min Money `json:"min"`
	Max Money `json:"max"`
}

type Image struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	AltText *string `json:"alt_text,omitempty"`
}

type ProductOption struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CatalogVariant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"available_for_sale"`
	SelectedOptions  []SelectedOption `json:"selected_options"`
}

type CatalogProduct struct {
	ID              string           `json:"id"`
	Handle          string           `json:"handle"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DescriptionHTML string           `json:"description_html"`
	Tags            []string         `json:"tags"`
	PriceRange      PriceRange       `json:"price_range"`
	Images          []Image          `json:"images"`
	Variants        []CatalogVariant `json:"variants"`
	Options         []ProductOption  `json:"options"`
}

// Price returns the product's display price from the catalog: the first
// variant's price, falling back to the minimum of the price range.
func (p *CatalogProduct) Price() Money {
	if len(p.Variants) > 0 {
		return p.Variants[0].Price
	}
	return p.PriceRange.Min
}

// Clone returns a deep copy so callers can patch without touching shared slices.
func (p CatalogProduct) Clone() CatalogProduct {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	out.Images = append([]Image(nil), p.Images...)
	out.Options = make([]ProductOption, len(p.Options))
	for i, o := range p.Options {
		o.Values = append([]string(nil), o.Values...)
		out.Options[i] = o
	}
	out.Variants = make([]CatalogVariant, len(p.Variants))
	for i, v := range p.Variants {
		v.SelectedOptions = append([]SelectedOption(nil), v.SelectedOptions...)
		out.Variants[i] = v
	}
	return out
}

// CheckoutLine is one line of a checkout request.
type CheckoutLine struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}
