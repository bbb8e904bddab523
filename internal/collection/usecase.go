package collection

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/collection/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

type UseCase interface {
	CreateCollection(ctx context.Context, input *dto.CreateCollectionInput) (*model.Collection, error)
	GetCollection(ctx context.Context, idOrSlug string) (*model.Collection, error)
	ListCollections(ctx context.Context, filters *dto.CollectionFilters) ([]model.Collection, int, error)
	UpdateCollection(ctx context.Context, input *dto.UpdateCollectionInput) (*model.Collection, error)
	DeleteCollection(ctx context.Context, id string) error

	AddProduct(ctx context.Context, collectionID, productID string, position int) error
	RemoveProduct(ctx context.Context, collectionID, productID string) error
	CollectionsFor(ctx context.Context, productID string) ([]string, error)
	// FilterProducts keeps the products that belong to the collection, in
	// membership order.
	FilterProducts(ctx context.Context, collectionID string, products []model.DisplayProduct) ([]model.DisplayProduct, error)
}
