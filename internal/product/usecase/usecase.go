package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/batch"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalog"
	"github.com/fekuna/omnipos-catalog-sync/internal/collection"
	"github.com/fekuna/omnipos-catalog-sync/internal/content"
	"github.com/fekuna/omnipos-catalog-sync/internal/events"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/merge"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/notify"
	"github.com/fekuna/omnipos-catalog-sync/internal/override"
	"github.com/fekuna/omnipos-catalog-sync/internal/product"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/view"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ActionPriceUpdate  = "price.update"
	ActionTagAssign    = "tag.assign"
	ActionTagRemove    = "tag.remove"
	ActionGenerate     = "content.generate"
	ActionSaveContent  = "content.save"
	ActionRenameOption = "option.rename"

	defaultSearchLimit = 20
	maxSearchLimit     = 250

	defaultSingleTimeout   = 10 * time.Second
	defaultMutationTimeout = 30 * time.Second
)

// SearchIndex is the full-text side of the merged catalog.
type SearchIndex interface {
	IndexProducts(ctx context.Context, products []model.DisplayProduct) error
	DeleteProduct(ctx context.Context, productID string) error
	Search(ctx context.Context, query string, size int) ([]string, int, error)
}

// Deps collects the collaborators of the product use case. Content, Search,
// View, Notifier and Publisher are optional.
type Deps struct {
	Catalog     catalog.Service
	Fetcher     *catalog.Fetcher
	Overrides   override.UseCase
	Collections collection.UseCase
	Content     *content.Service
	Search      SearchIndex
	View        *view.ProductView
	Notifier    *notify.Notifier
	Publisher   events.Publisher
	BatchLimit  int

	// SingleTimeout bounds one-off catalog reads and writes; MutationTimeout
	// bounds each item of a bulk write.
	SingleTimeout   time.Duration
	MutationTimeout time.Duration
}

type productUseCase struct {
	catalog     catalog.Service
	fetcher     *catalog.Fetcher
	overrides   override.UseCase
	collections collection.UseCase
	content     *content.Service
	renderer    *content.Renderer
	search      SearchIndex
	view        *view.ProductView
	notifier    *notify.Notifier
	publisher   events.Publisher
	batchLimit  int
	single      time.Duration
	mutation    time.Duration
	logger      logger.ZapLogger
}

func NewProductUseCase(deps Deps, log logger.ZapLogger) product.UseCase {
	uc := &productUseCase{
		catalog:     deps.Catalog,
		fetcher:     deps.Fetcher,
		overrides:   deps.Overrides,
		collections: deps.Collections,
		content:     deps.Content,
		renderer:    content.NewRenderer(),
		search:      deps.Search,
		view:        deps.View,
		notifier:    deps.Notifier,
		publisher:   deps.Publisher,
		batchLimit:  deps.BatchLimit,
		single:      deps.SingleTimeout,
		mutation:    deps.MutationTimeout,
		logger:      log,
	}
	if uc.single <= 0 {
		uc.single = defaultSingleTimeout
	}
	if uc.mutation <= 0 {
		uc.mutation = defaultMutationTimeout
	}
	if uc.content != nil {
		uc.renderer = uc.content.Renderer()
	}
	if uc.publisher == nil {
		uc.publisher = events.NopPublisher{}
	}
	return uc
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) (*dto.ProductList, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}
	count := filters.Count
	if count <= 0 {
		count = uc.fetcher.Config().BroadFetchThreshold
	}

	products, err := uc.listing(ctx, count, strings.TrimSpace(filters.Query))
	if err != nil {
		return nil, err
	}
	display, err := uc.resolveAll(ctx, products)
	if err != nil {
		return nil, err
	}

	display = merge.FilterByTag(display, merge.TagFilter{Value: filters.Tag, CatalogNative: filters.CatalogTag})
	if filters.CollectionID != "" {
		display, err = uc.collections.FilterProducts(ctx, filters.CollectionID, display)
		if err != nil {
			return nil, err
		}
	}
	return &dto.ProductList{Products: display, Total: len(display)}, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.DisplayProduct, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}
	p, err := timedValue(ctx, uc.single, func(ctx context.Context) (*model.CatalogProduct, error) {
		return uc.catalog.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return uc.resolveOne(ctx, *p)
}

func (uc *productUseCase) GetProductByHandle(ctx context.Context, handle string) (*model.DisplayProduct, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, fmt.Errorf("%w: handle is required", apperr.ErrInvalidArgument)
	}
	p, err := timedValue(ctx, uc.single, func(ctx context.Context) (*model.CatalogProduct, error) {
		return uc.catalog.GetProductByHandle(ctx, handle)
	})
	if err != nil {
		return nil, err
	}
	return uc.resolveOne(ctx, *p)
}

// SearchProducts queries the search index and resolves hits against the
// broad-fetch listing. When the index is absent or failing it falls back to a
// filtered catalog fetch.
func (uc *productUseCase) SearchProducts(ctx context.Context, query string, limit int) ([]model.DisplayProduct, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperr.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	if uc.search != nil {
		ids, total, err := uc.search.Search(ctx, query, limit)
		if err == nil {
			uc.logger.Debug("search index hit", zap.String("query", query), zap.Int("total", total))
			return uc.resolveIDs(ctx, ids)
		}
		uc.logger.Warn("search index failed, falling back to catalog", zap.String("query", query), zap.Error(err))
	}

	products, err := uc.fetcher.FetchCatalog(ctx, limit, query)
	if err != nil {
		return nil, err
	}
	return uc.resolveAll(ctx, products)
}

func (uc *productUseCase) GetProfit(ctx context.Context, id string) (*model.Profit, error) {
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	cost, err := uc.overrides.GetCost(ctx, id)
	if err != nil {
		return nil, err
	}
	profit := merge.ComputeProfit(p.Price.Amount, cost)
	return &profit, nil
}

func (uc *productUseCase) UpdateTitle(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if id == "" || title == "" {
		return fmt.Errorf("%w: product id and title are required", apperr.ErrInvalidArgument)
	}
	err := timed(ctx, uc.single, func(ctx context.Context) error {
		return uc.catalog.UpdateTitle(ctx, id, title)
	})
	if err != nil {
		return err
	}
	uc.patch(merge.PatchProducts(map[string]merge.ProductPatch{id: merge.SetTitle(title)}))
	return nil
}

func (uc *productUseCase) UpdateDescription(ctx context.Context, id, html string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}
	clean := uc.renderer.Sanitize(html)
	err := timed(ctx, uc.single, func(ctx context.Context) error {
		return uc.catalog.UpdateDescription(ctx, id, clean)
	})
	if err != nil {
		return err
	}
	uc.patch(merge.PatchProducts(map[string]merge.ProductPatch{id: merge.SetDescriptionHTML(clean)}))
	return nil
}

func (uc *productUseCase) AddImage(ctx context.Context, id, url string) (*model.Image, error) {
	if id == "" || strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: product id and image url are required", apperr.ErrInvalidArgument)
	}
	img, err := timedValue(ctx, uc.single, func(ctx context.Context) (*model.Image, error) {
		return uc.catalog.AddImage(ctx, id, strings.TrimSpace(url))
	})
	if err != nil {
		return nil, err
	}
	added := *img
	uc.patch(merge.PatchProducts(map[string]merge.ProductPatch{id: func(p *model.CatalogProduct) {
		p.Images = append(p.Images, added)
	}}))
	return img, nil
}

func (uc *productUseCase) DeleteImage(ctx context.Context, id, imageID string) error {
	if id == "" || imageID == "" {
		return fmt.Errorf("%w: product id and image id are required", apperr.ErrInvalidArgument)
	}
	err := timed(ctx, uc.single, func(ctx context.Context) error {
		return uc.catalog.DeleteImage(ctx, id, imageID)
	})
	if err != nil {
		return err
	}
	uc.patch(merge.PatchProducts(map[string]merge.ProductPatch{id: func(p *model.CatalogProduct) {
		kept := p.Images[:0]
		for _, img := range p.Images {
			if !identity.Matches(img.ID, imageID) {
				kept = append(kept, img)
			}
		}
		p.Images = kept
	}}))
	return nil
}

// DeleteProduct removes the product from the catalog, then drops it from the
// cache, the view and the search index, and deletes its editorial rows.
// Failures after the catalog delete are logged and leave orphaned rows.
func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", apperr.ErrInvalidArgument)
	}
	err := timed(ctx, uc.single, func(ctx context.Context) error {
		return uc.catalog.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.patch(merge.RemoveProducts(id))

	if uc.search != nil {
		if err := uc.search.DeleteProduct(ctx, id); err != nil {
			uc.logger.Warn("failed to remove product from search index", zap.String("product_id", id), zap.Error(err))
		}
	}
	if err := uc.overrides.DeleteProductData(ctx, id); err != nil {
		uc.logger.Error("failed to delete editorial data for deleted product", zap.String("product_id", id), zap.Error(err))
	}
	return nil
}

func (uc *productUseCase) CreateCheckout(ctx context.Context, lines []model.CheckoutLine) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: checkout needs at least one line", apperr.ErrInvalidArgument)
	}
	for _, l := range lines {
		if l.VariantID == "" || l.Quantity <= 0 {
			return "", fmt.Errorf("%w: every line needs a variant id and a positive quantity", apperr.ErrInvalidArgument)
		}
	}
	return timedValue(ctx, uc.single, func(ctx context.Context) (string, error) {
		return uc.catalog.CreateCheckout(ctx, lines)
	})
}

func (uc *productUseCase) BulkUpdatePrices(ctx context.Context, input *dto.BulkPriceInput) (*dto.BatchSummary, error) {
	if input == nil || len(input.Updates) == 0 {
		return nil, fmt.Errorf("%w: no price updates given", apperr.ErrInvalidArgument)
	}
	items := make([]batch.Item[dto.PriceUpdate], 0, len(input.Updates))
	seen := make(map[string]bool, len(input.Updates))
	for _, u := range input.Updates {
		key := identity.Normalize(u.VariantID)
		switch {
		case u.ProductID == "" || key == "":
			return nil, fmt.Errorf("%w: product and variant ids are required", apperr.ErrInvalidArgument)
		case u.Amount < 0 || math.IsNaN(u.Amount) || math.IsInf(u.Amount, 0):
			return nil, fmt.Errorf("%w: invalid price for variant %s", apperr.ErrInvalidArgument, u.VariantID)
		case seen[key]:
			return nil, fmt.Errorf("%w: variant %s listed twice", apperr.ErrInvalidArgument, u.VariantID)
		}
		seen[key] = true
		items = append(items, batch.Item[dto.PriceUpdate]{ID: u.VariantID, Value: u})
	}

	res := runBatch(ctx, uc, ActionPriceUpdate, items, func(ctx context.Context, it batch.Item[dto.PriceUpdate]) error {
		return timed(ctx, uc.mutation, func(ctx context.Context) error {
			return uc.catalog.UpdatePrice(ctx, it.Value.ProductID, it.Value.VariantID, it.Value.Amount)
		})
	})

	byVariant := make(map[string]dto.PriceUpdate, len(items))
	for _, it := range items {
		byVariant[it.ID] = it.Value
	}
	perProduct := make(map[string][]merge.ProductPatch)
	for _, id := range res.SucceededIDs {
		u := byVariant[id]
		key := identity.Normalize(u.ProductID)
		perProduct[key] = append(perProduct[key], merge.SetVariantPrice(u.VariantID, u.Amount))
	}
	patches := make(map[string]merge.ProductPatch, len(perProduct))
	for id, ps := range perProduct {
		patches[id] = merge.Chain(ps...)
	}
	uc.patch(merge.PatchProducts(patches))

	return uc.summarize(ActionPriceUpdate, input.Lang, res), res.Err()
}

func (uc *productUseCase) BulkToggleTag(ctx context.Context, input *dto.BulkTagInput) (*dto.BatchSummary, error) {
	if input == nil || strings.TrimSpace(input.TagID) == "" {
		return nil, fmt.Errorf("%w: tag id is required", apperr.ErrInvalidArgument)
	}
	items, err := productItems(input.ProductIDs, func(id string) string { return id })
	if err != nil {
		return nil, err
	}

	action := ActionTagAssign
	op := uc.overrides.AssignTag
	if !input.Assign {
		action, op = ActionTagRemove, uc.overrides.RemoveTag
	}
	res := runBatch(ctx, uc, action, items, func(ctx context.Context, it batch.Item[string]) error {
		return op(ctx, it.ID, input.TagID)
	})
	return uc.summarize(action, input.Lang, res), res.Err()
}

// GenerateContent drafts descriptions without saving them. Each generation is
// retried on transient failures; a product that still fails is reported in
// the summary.
func (uc *productUseCase) GenerateContent(ctx context.Context, input *dto.GenerateContentInput) (*dto.GenerateResult, error) {
	if uc.content == nil {
		return nil, fmt.Errorf("%w: content generation is not configured", apperr.ErrInvalidArgument)
	}
	if input == nil {
		return nil, fmt.Errorf("%w: no products given", apperr.ErrInvalidArgument)
	}
	items, err := productItems(input.ProductIDs, func(id string) string { return id })
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	drafts := make(map[string]*content.Draft, len(items))
	res := runBatch(ctx, uc, ActionGenerate, items, func(ctx context.Context, it batch.Item[string]) error {
		p, err := uc.lookup(ctx, it.ID)
		if err != nil {
			return err
		}
		d, err := uc.content.Draft(ctx, *p, input.Instructions)
		if err != nil {
			return err
		}
		mu.Lock()
		drafts[it.ID] = d
		mu.Unlock()
		return nil
	})

	out := &dto.GenerateResult{Summary: uc.summarize(ActionGenerate, input.Lang, res)}
	for _, id := range res.SucceededIDs {
		d := drafts[id]
		out.Drafts = append(out.Drafts, dto.DraftOutput{ProductID: id, Markdown: d.Markdown, HTML: d.HTML})
	}
	return out, res.Err()
}

func (uc *productUseCase) SaveGeneratedContent(ctx context.Context, input *dto.SaveContentInput) (*dto.BatchSummary, error) {
	if input == nil || len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: no content given", apperr.ErrInvalidArgument)
	}
	byID := make(map[string]string, len(input.Items))
	ids := make([]string, 0, len(input.Items))
	for _, it := range input.Items {
		if strings.TrimSpace(it.HTML) == "" {
			return nil, fmt.Errorf("%w: empty content for product %s", apperr.ErrInvalidArgument, it.ProductID)
		}
		byID[it.ProductID] = uc.renderer.Sanitize(it.HTML)
		ids = append(ids, it.ProductID)
	}
	items, err := productItems(ids, func(id string) string { return byID[id] })
	if err != nil {
		return nil, err
	}

	res := runBatch(ctx, uc, ActionSaveContent, items, func(ctx context.Context, it batch.Item[string]) error {
		return timed(ctx, uc.mutation, func(ctx context.Context) error {
			return uc.catalog.UpdateDescription(ctx, it.ID, it.Value)
		})
	})

	patches := make(map[string]merge.ProductPatch, len(res.SucceededIDs))
	for _, id := range res.SucceededIDs {
		patches[id] = merge.SetDescriptionHTML(byID[id])
	}
	uc.patch(merge.PatchProducts(patches))

	return uc.summarize(ActionSaveContent, input.Lang, res), res.Err()
}

// RenameOptionValue renames an option value on the product definition, then
// re-selects it on every affected variant. Variants are updated as a batch.
func (uc *productUseCase) RenameOptionValue(ctx context.Context, input *dto.RenameOptionInput) (*dto.BatchSummary, error) {
	if input == nil || input.ProductID == "" || input.OptionName == "" {
		return nil, fmt.Errorf("%w: product id and option name are required", apperr.ErrInvalidArgument)
	}
	from, to := input.From, strings.TrimSpace(input.To)
	if from == "" || to == "" || from == to {
		return nil, fmt.Errorf("%w: from and to must be distinct non-empty values", apperr.ErrInvalidArgument)
	}

	p, err := timedValue(ctx, uc.single, func(ctx context.Context) (*model.CatalogProduct, error) {
		return uc.catalog.GetProduct(ctx, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	if err := checkRename(p.Options, input.OptionName, from, to); err != nil {
		return nil, err
	}
	renamed := p.Clone()
	merge.RenameOptionValue(input.OptionName, from, to)(&renamed)

	err = timed(ctx, uc.single, func(ctx context.Context) error {
		return uc.catalog.UpdateOptions(ctx, p.ID, renamed.Options)
	})
	if err != nil {
		return nil, err
	}

	var items []batch.Item[[]model.SelectedOption]
	for i, v := range p.Variants {
		if !selects(v, input.OptionName, from) {
			continue
		}
		items = append(items, batch.Item[[]model.SelectedOption]{ID: v.ID, Value: renamed.Variants[i].SelectedOptions})
	}
	res := runBatch(ctx, uc, ActionRenameOption, items, func(ctx context.Context, it batch.Item[[]model.SelectedOption]) error {
		return timed(ctx, uc.mutation, func(ctx context.Context) error {
			return uc.catalog.UpdateVariant(ctx, p.ID, it.ID, it.Value)
		})
	})

	succeeded := res.SucceededIDs
	uc.patch(merge.PatchProducts(map[string]merge.ProductPatch{p.ID: func(cp *model.CatalogProduct) {
		cp.Options = renamed.Options
		for i := range cp.Variants {
			if identity.Contains(succeeded, cp.Variants[i].ID) {
				for j, so := range cp.Variants[i].SelectedOptions {
					if so.Name == input.OptionName && so.Value == from {
						cp.Variants[i].SelectedOptions[j].Value = to
					}
				}
			}
		}
	}}))

	return uc.summarize(ActionRenameOption, input.Lang, res), res.Err()
}

func (uc *productUseCase) IndexCatalog(ctx context.Context, products []model.CatalogProduct) error {
	if uc.search == nil {
		return nil
	}
	display, err := uc.resolveAll(ctx, products)
	if err != nil {
		return err
	}
	return uc.search.IndexProducts(ctx, display)
}

// sources loads the three editorial lists used to resolve a listing.
func (uc *productUseCase) sources(ctx context.Context) (merge.Sources, error) {
	var src merge.Sources
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		src.Overrides, err = uc.overrides.ListOverrides(ctx)
		return err
	})
	g.Go(func() (err error) {
		src.Assignments, err = uc.overrides.ListAssignments(ctx)
		return err
	})
	g.Go(func() (err error) {
		src.Offers, err = uc.overrides.ListOffers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return merge.Sources{}, fmt.Errorf("load editorial data: %w", err)
	}
	return src, nil
}

func (uc *productUseCase) resolveAll(ctx context.Context, products []model.CatalogProduct) ([]model.DisplayProduct, error) {
	src, err := uc.sources(ctx)
	if err != nil {
		return nil, err
	}
	return merge.ResolveAll(products, src), nil
}

func (uc *productUseCase) resolveOne(ctx context.Context, p model.CatalogProduct) (*model.DisplayProduct, error) {
	var (
		o     *model.OverrideRecord
		tags  []model.Tag
		offer *model.OfferRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o, err = uc.overrides.GetOverride(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		tags, err = uc.overrides.GetTagsFor(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		offer, err = uc.overrides.GetOffer(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load editorial data for %s: %w", p.ID, err)
	}
	d := merge.Resolve(p, o, tags, offer)
	return &d, nil
}

// resolveIDs resolves search hits in hit order. Hits missing from the
// broad-fetch listing are fetched one by one; hits the catalog no longer
// knows are skipped.
func (uc *productUseCase) resolveIDs(ctx context.Context, ids []string) ([]model.DisplayProduct, error) {
	if len(ids) == 0 {
		return []model.DisplayProduct{}, nil
	}
	listing, err := uc.listing(ctx, uc.fetcher.Config().BroadFetchThreshold, "")
	if err != nil {
		return nil, err
	}
	idx := identity.NewIndex(listing, func(p model.CatalogProduct) string { return p.ID })

	hits := make([]model.CatalogProduct, 0, len(ids))
	for _, id := range ids {
		if p, ok := idx.Lookup(id); ok {
			hits = append(hits, p)
			continue
		}
		p, err := timedValue(ctx, uc.single, func(ctx context.Context) (*model.CatalogProduct, error) {
			return uc.catalog.GetProduct(ctx, id)
		})
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		hits = append(hits, *p)
	}
	return uc.resolveAll(ctx, hits)
}

// listing serves unfiltered reads from the mounted view when it holds at
// least count products, and goes through the fetcher otherwise.
func (uc *productUseCase) listing(ctx context.Context, count int, query string) ([]model.CatalogProduct, error) {
	if query == "" && uc.view != nil && uc.view.Mounted() {
		if products := uc.view.Products(); len(products) >= count {
			return products[:count], nil
		}
	}
	return uc.fetcher.FetchCatalog(ctx, count, query)
}

// lookup prefers the view, then the cached listing, over a catalog round trip.
func (uc *productUseCase) lookup(ctx context.Context, id string) (*model.CatalogProduct, error) {
	var lists [][]model.CatalogProduct
	if uc.view != nil && uc.view.Mounted() {
		lists = append(lists, uc.view.Products())
	}
	if e := uc.fetcher.Cache().Snapshot(); e != nil {
		lists = append(lists, e.Products)
	}
	for _, products := range lists {
		idx := identity.NewIndex(products, func(p model.CatalogProduct) string { return p.ID })
		if p, ok := idx.Lookup(id); ok {
			return &p, nil
		}
	}
	return timedValue(ctx, uc.single, func(ctx context.Context) (*model.CatalogProduct, error) {
		return uc.catalog.GetProduct(ctx, id)
	})
}

// patch applies reducer to the cache and, when mounted, the view.
func (uc *productUseCase) patch(reducer func([]model.CatalogProduct) []model.CatalogProduct) {
	uc.fetcher.Cache().Patch(reducer)
	if uc.view != nil {
		uc.view.Patch(reducer)
	}
}

func (uc *productUseCase) summarize(action, lang string, res batch.Result) *dto.BatchSummary {
	s := &dto.BatchSummary{
		Action:       action,
		SucceededIDs: append([]string{}, res.SucceededIDs...),
		FailedIDs:    append([]string{}, res.FailedIDs()...),
		FailedCount:  res.FailedCount,
	}
	if len(res.Failures) > 0 {
		s.Errors = make(map[string]string, len(res.Failures))
		for _, f := range res.Failures {
			s.Errors[f.ID] = f.Err.Error()
		}
	}
	if uc.notifier != nil {
		s.Message = uc.notifier.BatchSummary(len(res.SucceededIDs), res.FailedCount, lang)
	}
	return s
}

// runBatch runs op over items, logs chunk progress and publishes the outcome.
func runBatch[T any](ctx context.Context, uc *productUseCase, action string, items []batch.Item[T], op batch.Op[T]) batch.Result {
	res := batch.Run(ctx, items, batch.Options{
		Limit: uc.batchLimit,
		OnChunk: func(r batch.ChunkReport) {
			uc.logger.Debug("batch chunk settled",
				zap.String("action", action),
				zap.Int("chunk", r.Index),
				zap.Int("succeeded", r.Succeeded),
				zap.Int("failed", r.Failed),
			)
		},
	}, op)

	failed := make(map[string]error, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.ID] = f.Err
		uc.logger.Warn("batch item failed", zap.String("action", action), zap.String("id", f.ID), zap.Error(f.Err))
	}
	uc.logger.Info("batch completed",
		zap.String("action", action),
		zap.Int("succeeded", len(res.SucceededIDs)),
		zap.Int("failed", res.FailedCount),
	)

	// Publish even when the request was cancelled mid-batch.
	pubCtx := context.WithoutCancel(ctx)
	if err := uc.publisher.PublishBatch(pubCtx, action, res.SucceededIDs, failed); err != nil {
		uc.logger.Warn("failed to publish batch event", zap.String("action", action), zap.Error(err))
	}
	return res
}

// productItems builds one batch item per distinct product id.
func productItems(ids []string, value func(id string) string) ([]batch.Item[string], error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no products given", apperr.ErrInvalidArgument)
	}
	items := make([]batch.Item[string], 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := identity.Normalize(id)
		if key == "" {
			return nil, fmt.Errorf("%w: empty product id", apperr.ErrInvalidArgument)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, batch.Item[string]{ID: id, Value: value(id)})
	}
	return items, nil
}

// timed runs fn under its own deadline of d.
func timed(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return apperr.FromDeadline(ctx, callCtx, fn(callCtx))
}

func timedValue[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	v, err := fn(callCtx)
	return v, apperr.FromDeadline(ctx, callCtx, err)
}

func selects(v model.CatalogVariant, name, value string) bool {
	for _, so := range v.SelectedOptions {
		if so.Name == name && so.Value == value {
			return true
		}
	}
	return false
}

func checkRename(options []model.ProductOption, name, from, to string) error {
	for _, o := range options {
		if o.Name != name {
			continue
		}
		hasFrom := false
		for _, v := range o.Values {
			if v == to {
				return fmt.Errorf("%w: option %s already has value %q", apperr.ErrInvalidArgument, name, to)
			}
			hasFrom = hasFrom || v == from
		}
		if !hasFrom {
			return fmt.Errorf("%w: option %s has no value %q", apperr.ErrInvalidArgument, name, from)
		}
		return nil
	}
	return fmt.Errorf("%w: product has no option %q", apperr.ErrInvalidArgument, name)
}
