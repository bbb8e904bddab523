package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/override"
	"github.com/fekuna/omnipos-catalog-sync/internal/override/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var errNilInput = fmt.Errorf("%w: input is required", apperr.ErrInvalidArgument)

const (
	cacheTTL         = 5 * time.Minute
	keyProductPrefix = "overrides:product:"
	keyOverrides     = "overrides:list:overrides"
	keyAssignments   = "overrides:list:assignments"
	keyOffers        = "overrides:list:offers"
	keyTags          = "overrides:list:tags"
)

type overrideUseCase struct {
	repo   override.Repository
	cache  override.Cache
	logger logger.ZapLogger
	now    func() time.Time
}

// NewOverrideUseCase builds the override store client. cache may be nil.
func NewOverrideUseCase(repo override.Repository, cache override.Cache, log logger.ZapLogger) override.UseCase {
	return &overrideUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// productBundle is the per-product cache entry.
type productBundle struct {
	Override *model.OverrideRecord `json:"override"`
	Tags     []model.Tag           `json:"tags"`
}

func bundleKey(productID string) string {
	return keyProductPrefix + identity.Normalize(productID)
}

func (uc *overrideUseCase) readCache(ctx context.Context, key string, out any) bool {
	if uc.cache == nil {
		return false
	}
	ok, err := uc.cache.GetJSON(ctx, key, out)
	if err != nil {
		uc.logger.Warn("override cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (uc *overrideUseCase) writeCache(ctx context.Context, key string, v any) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.SetJSON(ctx, key, v, cacheTTL); err != nil {
		uc.logger.Warn("override cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate drops the per-product bundle and the given list keys.
func (uc *overrideUseCase) invalidate(ctx context.Context, productID string, lists ...string) {
	uc.drop(ctx, append([]string{bundleKey(productID)}, lists...)...)
}

func (uc *overrideUseCase) drop(ctx context.Context, keys ...string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("override cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func requireID(productID string) (string, error) {
	id := identity.Normalize(productID)
	if id == "" {
		return "", fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}
	return id, nil
}

// pick returns the first row whose key matches productID.
func pick[T any](rows []T, productID string, key func(T) string) *T {
	for i := range rows {
		if identity.Matches(key(rows[i]), productID) {
			return &rows[i]
		}
	}
	return nil
}

func (uc *overrideUseCase) loadBundle(ctx context.Context, productID string) (*productBundle, error) {
	var b productBundle
	if uc.readCache(ctx, bundleKey(productID), &b) {
		return &b, nil
	}

	overrides, err := uc.repo.FindOverrides(ctx, productID)
	if err != nil {
		return nil, err
	}
	b.Override = pick(overrides, productID, func(o model.OverrideRecord) string { return o.ProductID })

	assignments, err := uc.repo.FindAssignments(ctx, productID)
	if err != nil {
		return nil, err
	}
	b.Tags = tagsFrom(assignments, productID)

	uc.writeCache(ctx, bundleKey(productID), &b)
	return &b, nil
}

func tagsFrom(assignments []model.TagAssignment, productID string) []model.Tag {
	seen := map[string]bool{}
	tags := []model.Tag{}
	for _, a := range assignments {
		if !identity.Matches(a.ProductID, productID) || a.Tag == nil || seen[a.TagID] {
			continue
		}
		seen[a.TagID] = true
		tags = append(tags, *a.Tag)
	}
	return tags
}

func (uc *overrideUseCase) GetOverride(ctx context.Context, productID string) (*model.OverrideRecord, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}
	b, err := uc.loadBundle(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Override, nil
}

func (uc *overrideUseCase) UpsertOverride(ctx context.Context, productID string, fields model.OverrideFields) (*model.OverrideRecord, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}

	// Historical rows keep their stored key so the update lands on them
	// instead of creating a second row for the same product.
	key := id
	existing, err := uc.repo.FindOverrides(ctx, id)
	if err != nil {
		return nil, err
	}
	if row := pick(existing, id, func(o model.OverrideRecord) string { return o.ProductID }); row != nil {
		key = row.ProductID
		if fields.Empty() {
			return row, nil
		}
	}

	rec, err := uc.repo.UpsertOverride(ctx, key, fields)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id, keyOverrides)
	return rec, nil
}

func (uc *overrideUseCase) ListOverrides(ctx context.Context) ([]model.OverrideRecord, error) {
	var rows []model.OverrideRecord
	if uc.readCache(ctx, keyOverrides, &rows) {
		return rows, nil
	}
	rows, err := uc.repo.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	uc.writeCache(ctx, keyOverrides, rows)
	return rows, nil
}

func (uc *overrideUseCase) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if uc.readCache(ctx, keyTags, &tags) {
		return tags, nil
	}
	tags, err := uc.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	uc.writeCache(ctx, keyTags, tags)
	return tags, nil
}

func (uc *overrideUseCase) CreateTag(ctx context.Context, input *dto.CreateTagInput) (*model.Tag, error) {
	if input == nil {
		return nil, errNilInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", apperr.ErrInvalidArgument)
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	now := uc.now()
	tag := &model.Tag{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		Slug:      slug,
	}
	if g := strings.TrimSpace(input.Group); g != "" {
		tag.Group = &g
	}
	if err := uc.repo.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	uc.drop(ctx, keyTags)
	return tag, nil
}

func (uc *overrideUseCase) GetTagsFor(ctx context.Context, productID string) ([]model.Tag, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}
	b, err := uc.loadBundle(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Tags, nil
}

func (uc *overrideUseCase) ListAssignments(ctx context.Context) ([]model.TagAssignment, error) {
	var rows []model.TagAssignment
	if uc.readCache(ctx, keyAssignments, &rows) {
		return rows, nil
	}
	rows, err := uc.repo.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	uc.writeCache(ctx, keyAssignments, rows)
	return rows, nil
}

func (uc *overrideUseCase) AssignTag(ctx context.Context, productID, tagID string) error {
	id, err := requireID(productID)
	if err != nil {
		return err
	}
	tag, err := uc.repo.FindTagByID(ctx, tagID)
	if err != nil {
		return err
	}
	if tag == nil {
		return fmt.Errorf("tag %s: %w", tagID, apperr.ErrNotFound)
	}

	existing, err := uc.repo.FindAssignments(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.TagID == tagID && identity.Matches(a.ProductID, id) {
			return nil
		}
	}

	err = uc.repo.CreateAssignment(ctx, &model.TagAssignment{
		ProductID: id,
		TagID:     tagID,
		CreatedAt: uc.now(),
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx, id, keyAssignments)
	return nil
}

func (uc *overrideUseCase) RemoveTag(ctx context.Context, productID, tagID string) error {
	id, err := requireID(productID)
	if err != nil {
		return err
	}
	existing, err := uc.repo.FindAssignments(ctx, id)
	if err != nil {
		return err
	}
	var keys []string
	for _, a := range existing {
		if a.TagID == tagID && identity.Matches(a.ProductID, id) {
			keys = append(keys, a.ProductID)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if _, err := uc.repo.DeleteAssignments(ctx, keys, tagID); err != nil {
		return err
	}
	uc.invalidate(ctx, id, keyAssignments)
	return nil
}

func (uc *overrideUseCase) GetCost(ctx context.Context, productID string) (*model.CostRecord, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.FindCosts(ctx, id)
	if err != nil {
		return nil, err
	}
	return pick(rows, id, func(c model.CostRecord) string { return c.ProductID }), nil
}

func (uc *overrideUseCase) SaveCost(ctx context.Context, input *dto.SaveCostInput) (*model.CostRecord, error) {
	if input == nil {
		return nil, errNilInput
	}
	id, err := requireID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.ProductCost < 0 || input.ShippingCost < 0 {
		return nil, fmt.Errorf("%w: costs must not be negative", apperr.ErrInvalidArgument)
	}

	key := id
	rows, err := uc.repo.FindCosts(ctx, id)
	if err != nil {
		return nil, err
	}
	if row := pick(rows, id, func(c model.CostRecord) string { return c.ProductID }); row != nil {
		key = row.ProductID
	}

	rec := &model.CostRecord{
		ProductID:    key,
		ProductCost:  input.ProductCost,
		ShippingCost: input.ShippingCost,
		Notes:        input.Notes,
		SupplierRef:  input.SupplierRef,
		UpdatedAt:    uc.now(),
	}
	if err := uc.repo.UpsertCost(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *overrideUseCase) GetOffer(ctx context.Context, productID string) (*model.OfferRecord, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.FindOffers(ctx, id)
	if err != nil {
		return nil, err
	}
	return pick(rows, id, func(o model.OfferRecord) string { return o.ProductID }), nil
}

func (uc *overrideUseCase) ListOffers(ctx context.Context) ([]model.OfferRecord, error) {
	var rows []model.OfferRecord
	if uc.readCache(ctx, keyOffers, &rows) {
		return rows, nil
	}
	rows, err := uc.repo.ListOffers(ctx)
	if err != nil {
		return nil, err
	}
	uc.writeCache(ctx, keyOffers, rows)
	return rows, nil
}

func (uc *overrideUseCase) SaveOffer(ctx context.Context, input *dto.SaveOfferInput) (*model.OfferRecord, error) {
	if input == nil {
		return nil, errNilInput
	}
	id, err := requireID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return nil, fmt.Errorf("%w: discount percent must be within 0-100", apperr.ErrInvalidArgument)
	}

	key := id
	rows, err := uc.repo.FindOffers(ctx, id)
	if err != nil {
		return nil, err
	}
	if row := pick(rows, id, func(o model.OfferRecord) string { return o.ProductID }); row != nil {
		key = row.ProductID
	}

	rec := &model.OfferRecord{
		ProductID:         key,
		OfferActive:       input.OfferActive,
		DiscountPercent:   input.DiscountPercent,
		OriginalPrice:     input.OriginalPrice,
		OfferText:         input.OfferText,
		OfferSubtext:      input.OfferSubtext,
		LowStockThreshold: input.LowStockThreshold,
		LowStock:          input.LowStock,
		ExpiresAt:         input.ExpiresAt,
		UpdatedAt:         uc.now(),
	}
	if err := uc.repo.UpsertOffer(ctx, rec); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id, keyOffers)
	return rec, nil
}

func (uc *overrideUseCase) DeleteProductData(ctx context.Context, productID string) error {
	id, err := requireID(productID)
	if err != nil {
		return err
	}

	keys := map[string]struct{}{id: {}}
	collect := func(k string) {
		if identity.Matches(k, id) {
			keys[k] = struct{}{}
		}
	}
	overrides, err := uc.repo.FindOverrides(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		collect(o.ProductID)
	}
	assignments, err := uc.repo.FindAssignments(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		collect(a.ProductID)
	}
	costs, err := uc.repo.FindCosts(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range costs {
		collect(c.ProductID)
	}
	offers, err := uc.repo.FindOffers(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range offers {
		collect(o.ProductID)
	}

	list := make([]string, 0, len(keys))
	for k := range keys {
		list = append(list, k)
	}
	if err := uc.repo.DeleteProductData(ctx, list); err != nil {
		return err
	}
	uc.invalidate(ctx, id, keyOverrides, keyAssignments, keyOffers)
	uc.logger.Info("deleted product editorial data", zap.String("product_id", id), zap.Int("keys", len(list)))
	return nil
}

var slugTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, strips diacritics and joins alphanumeric runs with '-'.
func Slugify(s string) string {
	folded, _, err := transform.String(slugTransformer, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
