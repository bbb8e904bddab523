package override

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/override/dto"
)

type UseCase interface {
	GetOverride(ctx context.Context, productID string) (*model.OverrideRecord, error)
	UpsertOverride(ctx context.Context, productID string, fields model.OverrideFields) (*model.OverrideRecord, error)
	ListOverrides(ctx context.Context) ([]model.OverrideRecord, error)

	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, input *dto.CreateTagInput) (*model.Tag, error)
	GetTagsFor(ctx context.Context, productID string) ([]model.Tag, error)
	ListAssignments(ctx context.Context) ([]model.TagAssignment, error)
	AssignTag(ctx context.Context, productID, tagID string) error
	RemoveTag(ctx context.Context, productID, tagID string) error

	GetCost(ctx context.Context, productID string) (*model.CostRecord, error)
	SaveCost(ctx context.Context, input *dto.SaveCostInput) (*model.CostRecord, error)

	GetOffer(ctx context.Context, productID string) (*model.OfferRecord, error)
	ListOffers(ctx context.Context) ([]model.OfferRecord, error)
	SaveOffer(ctx context.Context, input *dto.SaveOfferInput) (*model.OfferRecord, error)

	// DeleteProductData removes every editorial row for a product. Cascading
	// after a catalog delete is the caller's job.
	DeleteProductData(ctx context.Context, productID string) error
}
