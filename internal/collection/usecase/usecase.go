package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/collection"
	"github.com/fekuna/omnipos-catalog-sync/internal/collection/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	overrideuc "github.com/fekuna/omnipos-catalog-sync/internal/override/usecase"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type collectionUseCase struct {
	repo   collection.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewCollectionUseCase(repo collection.Repository, log logger.ZapLogger) collection.UseCase {
	return &collectionUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *collectionUseCase) CreateCollection(ctx context.Context, input *dto.CreateCollectionInput) (*model.Collection, error) {
	if input == nil || strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", apperr.ErrInvalidArgument)
	}
	slug := overrideuc.Slugify(input.Slug)
	if slug == "" {
		slug = overrideuc.Slugify(input.Name)
	}
	existing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: slug %q already in use", apperr.ErrInvalidArgument, slug)
	}

	now := uc.now()
	c := &model.Collection{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:     strings.TrimSpace(input.Name),
		Slug:     slug,
		ImageURL: optional(input.ImageURL),
		IsActive: true,
		Position: input.Position,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCollection resolves a collection by id, falling back to its slug.
func (uc *collectionUseCase) GetCollection(ctx context.Context, idOrSlug string) (*model.Collection, error) {
	c, err := uc.repo.FindByID(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if c, err = uc.repo.FindBySlug(ctx, idOrSlug); err != nil {
			return nil, err
		}
	}
	if c == nil {
		return nil, fmt.Errorf("collection %s: %w", idOrSlug, apperr.ErrNotFound)
	}
	return c, nil
}

func (uc *collectionUseCase) ListCollections(ctx context.Context, filters *dto.CollectionFilters) ([]model.Collection, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *collectionUseCase) UpdateCollection(ctx context.Context, input *dto.UpdateCollectionInput) (*model.Collection, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input is required", apperr.ErrInvalidArgument)
	}
	c, err := uc.GetCollection(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		c.Name = name
	}
	if slug := overrideuc.Slugify(input.Slug); slug != "" && slug != c.Slug {
		taken, err := uc.repo.FindBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if taken != nil && taken.ID != c.ID {
			return nil, fmt.Errorf("%w: slug %q already in use", apperr.ErrInvalidArgument, slug)
		}
		c.Slug = slug
	}
	c.ImageURL = optional(input.ImageURL)
	c.Position = input.Position
	c.IsActive = input.IsActive
	c.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *collectionUseCase) DeleteCollection(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *collectionUseCase) AddProduct(ctx context.Context, collectionID, productID string, position int) error {
	c, err := uc.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	id := identity.Normalize(productID)
	if id == "" {
		return fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}

	// Reuse a historical key so the membership is not duplicated.
	key := id
	rows, err := uc.repo.FindMembershipsFor(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range rows {
		if m.CollectionID == c.ID && identity.Matches(m.ProductID, id) {
			key = m.ProductID
			break
		}
	}

	return uc.repo.AddMember(ctx, &model.CollectionMembership{
		CollectionID: c.ID,
		ProductID:    key,
		Position:     position,
		CreatedAt:    uc.now(),
	})
}

func (uc *collectionUseCase) RemoveProduct(ctx context.Context, collectionID, productID string) error {
	c, err := uc.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	id := identity.Normalize(productID)
	if id == "" {
		return fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}
	rows, err := uc.repo.FindMembershipsFor(ctx, id)
	if err != nil {
		return err
	}
	var keys []string
	for _, m := range rows {
		if m.CollectionID == c.ID && identity.Matches(m.ProductID, id) {
			keys = append(keys, m.ProductID)
		}
	}
	n, err := uc.repo.RemoveMembers(ctx, c.ID, keys)
	if err != nil {
		return err
	}
	uc.logger.Debug("removed collection members",
		zap.String("collection_id", c.ID), zap.String("product_id", id), zap.Int64("rows", n))
	return nil
}

func (uc *collectionUseCase) CollectionsFor(ctx context.Context, productID string) ([]string, error) {
	id := identity.Normalize(productID)
	rows, err := uc.repo.FindMembershipsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, m := range rows {
		if identity.Matches(m.ProductID, id) && !seen[m.CollectionID] {
			seen[m.CollectionID] = true
			out = append(out, m.CollectionID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (uc *collectionUseCase) FilterProducts(ctx context.Context, collectionID string, products []model.DisplayProduct) ([]model.DisplayProduct, error) {
	c, err := uc.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	members, err := uc.repo.FindMembers(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	index := identity.NewIndex(products, func(p model.DisplayProduct) string { return p.ID })
	out := make([]model.DisplayProduct, 0, len(members))
	seen := map[string]bool{}
	for _, m := range members {
		p, ok := index.Lookup(m.ProductID)
		if !ok || seen[identity.Normalize(p.ID)] {
			continue
		}
		seen[identity.Normalize(p.ID)] = true
		out = append(out, p)
	}
	return out, nil
}
