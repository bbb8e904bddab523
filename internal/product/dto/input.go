package dto

import "github.com/fekuna/omnipos-catalog-sync/internal/model"

type PriceUpdate struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id"`
	Amount    float64 `json:"amount"`
}

type BulkPriceInput struct {
	Updates []PriceUpdate `json:"updates"`
	Lang    string        `json:"-"`
}

type BulkTagInput struct {
	ProductIDs []string `json:"product_ids"`
	TagID      string   `json:"tag_id"`
	Assign     bool     `json:"assign"`
	Lang       string   `json:"-"`
}

type GenerateContentInput struct {
	ProductIDs   []string `json:"product_ids"`
	Instructions string   `json:"instructions"`
	Lang         string   `json:"-"`
}

type ContentItem struct {
	ProductID string `json:"product_id"`
	HTML      string `json:"html"`
}

type SaveContentInput struct {
	Items []ContentItem `json:"items"`
	Lang  string        `json:"-"`
}

type RenameOptionInput struct {
	ProductID  string `json:"-"`
	OptionName string `json:"option_name"`
	From       string `json:"from"`
	To         string `json:"to"`
	Lang       string `json:"-"`
}

type CheckoutInput struct {
	Lines []model.CheckoutLine `json:"lines"`
}
