package collection

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/collection/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

type Repository interface {
	Create(ctx context.Context, c *model.Collection) error
	FindByID(ctx context.Context, id string) (*model.Collection, error)
	FindBySlug(ctx context.Context, slug string) (*model.Collection, error)
	FindAll(ctx context.Context, filters *dto.CollectionFilters) ([]model.Collection, int, error)
	Update(ctx context.Context, c *model.Collection) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, m *model.CollectionMembership) error
	// RemoveMembers deletes memberships of collectionID stored under any of keys.
	RemoveMembers(ctx context.Context, collectionID string, keys []string) (int64, error)
	FindMembers(ctx context.Context, collectionID string) ([]model.CollectionMembership, error)
	// FindMembershipsFor returns candidate rows for a normalized product id.
	FindMembershipsFor(ctx context.Context, productID string) ([]model.CollectionMembership, error)
}
