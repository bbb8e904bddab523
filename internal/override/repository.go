package override

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// Repository is the override store. Lookups by product take a normalized id and
// return every row whose key may refer to it (bare or namespaced); callers pick
// the exact match through the identity package.
type Repository interface {
	FindOverrides(ctx context.Context, productID string) ([]model.OverrideRecord, error)
	ListOverrides(ctx context.Context) ([]model.OverrideRecord, error)
	UpsertOverride(ctx context.Context, key string, fields model.OverrideFields) (*model.OverrideRecord, error)

	ListTags(ctx context.Context) ([]model.Tag, error)
	FindTagByID(ctx context.Context, id string) (*model.Tag, error)
	CreateTag(ctx context.Context, tag *model.Tag) error
	FindAssignments(ctx context.Context, productID string) ([]model.TagAssignment, error)
	ListAssignments(ctx context.Context) ([]model.TagAssignment, error)
	CreateAssignment(ctx context.Context, a *model.TagAssignment) error
	DeleteAssignments(ctx context.Context, keys []string, tagID string) (int64, error)

	FindCosts(ctx context.Context, productID string) ([]model.CostRecord, error)
	UpsertCost(ctx context.Context, c *model.CostRecord) error

	FindOffers(ctx context.Context, productID string) ([]model.OfferRecord, error)
	ListOffers(ctx context.Context) ([]model.OfferRecord, error)
	UpsertOffer(ctx context.Context, o *model.OfferRecord) error

	DeleteProductData(ctx context.Context, keys []string) error
}

// Cache is the read-through cache in front of the repository.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}
