package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
)

// UseCase exposes the merged catalog to consumers. Bulk operations return
// their summary together with a *apperr.PartialBatchError when some items
// failed; the succeeded items stay applied.
type UseCase interface {
	ListProducts(ctx context.Context, filters *dto.ProductFilters) (*dto.ProductList, error)
	GetProduct(ctx context.Context, id string) (*model.DisplayProduct, error)
	GetProductByHandle(ctx context.Context, handle string) (*model.DisplayProduct, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]model.DisplayProduct, error)
	GetProfit(ctx context.Context, id string) (*model.Profit, error)

	UpdateTitle(ctx context.Context, id, title string) error
	UpdateDescription(ctx context.Context, id, html string) error
	AddImage(ctx context.Context, id, url string) (*model.Image, error)
	DeleteImage(ctx context.Context, id, imageID string) error
	DeleteProduct(ctx context.Context, id string) error
	CreateCheckout(ctx context.Context, lines []model.CheckoutLine) (string, error)

	BulkUpdatePrices(ctx context.Context, input *dto.BulkPriceInput) (*dto.BatchSummary, error)
	BulkToggleTag(ctx context.Context, input *dto.BulkTagInput) (*dto.BatchSummary, error)
	GenerateContent(ctx context.Context, input *dto.GenerateContentInput) (*dto.GenerateResult, error)
	SaveGeneratedContent(ctx context.Context, input *dto.SaveContentInput) (*dto.BatchSummary, error)
	RenameOptionValue(ctx context.Context, input *dto.RenameOptionInput) (*dto.BatchSummary, error)

	// IndexCatalog merges a freshly polled catalog and pushes it to search.
	IndexCatalog(ctx context.Context, products []model.CatalogProduct) error
}
