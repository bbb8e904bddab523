package model

// DisplayProduct is a catalog product merged with its editorial data.
type DisplayProduct struct {
	ID              string           `json:"id"`
	Handle          string           `json:"handle"`
	Title           string           `json:"title"`
	Subtitle        string           `json:"subtitle,omitempty"`
	Description     string           `json:"description"`
	DescriptionHTML string           `json:"description_html"`
	Price           Money            `json:"price"`
	PriceOverridden bool             `json:"price_overridden"`
	Images          []Image          `json:"images"`
	Variants        []CatalogVariant `json:"variants"`
	Options         []ProductOption  `json:"options"`
	CatalogTags     []string         `json:"catalog_tags"`
	Tags            []Tag            `json:"tags"`
	Offer           *OfferBadge      `json:"offer,omitempty"`
}

type OfferBadge struct {
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	Text            string   `json:"text,omitempty"`
	Subtext         string   `json:"subtext,omitempty"`
	LowStock        bool     `json:"low_stock"`
}

// Profit is derived from a selling price and a CostRecord. Margin is only
// meaningful when MarginDefined is true.
type Profit struct {
	SellingPrice  float64 `json:"selling_price"`
	TotalCost     float64 `json:"total_cost"`
	Profit        float64 `json:"profit"`
	Margin        float64 `json:"margin"`
	MarginDefined bool    `json:"margin_defined"`
}
