package catalog

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// ListResult is one page of a catalog listing.
type ListResult struct {
	Products   []model.CatalogProduct
	NextCursor string
	HasMore    bool
}

// Service is the subset of the external catalog API the core depends on.
// Ids may be passed in either bare or namespaced form.
type Service interface {
	ListProducts(ctx context.Context, count int, cursor, filter string) (*ListResult, error)
	GetProduct(ctx context.Context, id string) (*model.CatalogProduct, error)
	GetProductByHandle(ctx context.Context, handle string) (*model.CatalogProduct, error)

	UpdateTitle(ctx context.Context, id, title string) error
	UpdatePrice(ctx context.Context, id, variantID string, amount float64) error
	UpdateDescription(ctx context.Context, id, html string) error
	UpdateOptions(ctx context.Context, id string, options []model.ProductOption) error
	UpdateVariant(ctx context.Context, id, variantID string, optionValues []model.SelectedOption) error
	AddImage(ctx context.Context, id, url string) (*model.Image, error)
	DeleteImage(ctx context.Context, id, imageID string) error
	DeleteProduct(ctx context.Context, id string) error

	CreateCheckout(ctx context.Context, lines []model.CheckoutLine) (string, error)
}
