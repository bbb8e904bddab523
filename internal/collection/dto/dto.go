package dto

type CollectionFilters struct {
	IsActive *bool // nil lists every collection
	Page     int
	PageSize int
}
