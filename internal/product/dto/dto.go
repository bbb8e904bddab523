package dto

import "github.com/fekuna/omnipos-catalog-sync/internal/model"

type ProductFilters struct {
	Count        int    // zero uses the dashboard-scale default
	Query        string // catalog search query; bypasses the catalog cache
	Tag          string
	CatalogTag   bool // match Tag against catalog-native tags
	CollectionID string
}

type ProductList struct {
	Products []model.DisplayProduct `json:"products"`
	Total    int                    `json:"total"`
}

// BatchSummary is the outcome of a bulk operation.
type BatchSummary struct {
	Action       string            `json:"action"`
	SucceededIDs []string          `json:"succeeded_ids"`
	FailedIDs    []string          `json:"failed_ids"`
	FailedCount  int               `json:"failed_count"`
	Errors       map[string]string `json:"errors,omitempty"`
	Message      string            `json:"message"`
}

type GenerateResult struct {
	Drafts  []DraftOutput `json:"drafts"`
	Summary *BatchSummary `json:"summary"`
}

type DraftOutput struct {
	ProductID string `json:"product_id"`
	Markdown  string `json:"markdown"`
	HTML      string `json:"html"`
}
