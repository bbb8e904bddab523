package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/batch"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalog"
	"github.com/fekuna/omnipos-catalog-sync/internal/content"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/notify"
	"github.com/fekuna/omnipos-catalog-sync/internal/override"
	"github.com/fekuna/omnipos-catalog-sync/internal/product"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/view"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	catalog.Service

	mu       sync.Mutex
	products []model.CatalogProduct
	fail     map[string]error // keyed by variant or product id
	stall    bool             // writes block until their context ends
	filters  []string
	options  []model.ProductOption
	variants map[string][]model.SelectedOption
	deleted  []string
}

func (f *fakeCatalog) ListProducts(_ context.Context, count int, _, filter string) (*catalog.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	var out []model.CatalogProduct
	for _, p := range f.products {
		if filter == "" || strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter)) {
			out = append(out, p.Clone())
		}
	}
	return &catalog.ListResult{Products: out[:min(count, len(out))]}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*model.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if identity.Matches(p.ID, id) {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeCatalog) failure(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[identity.Normalize(id)]
}

func (f *fakeCatalog) wait(ctx context.Context) error {
	f.mu.Lock()
	stall := f.stall
	f.mu.Unlock()
	if !stall {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeCatalog) UpdatePrice(ctx context.Context, _, variantID string, _ float64) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.failure(variantID)
}

func (f *fakeCatalog) UpdateDescription(_ context.Context, id, _ string) error {
	return f.failure(id)
}

func (f *fakeCatalog) UpdateOptions(_ context.Context, _ string, options []model.ProductOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = options
	return nil
}

func (f *fakeCatalog) UpdateVariant(_ context.Context, _, variantID string, values []model.SelectedOption) error {
	if err := f.failure(variantID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.variants == nil {
		f.variants = map[string][]model.SelectedOption{}
	}
	f.variants[variantID] = values
	return nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeOverrides serves fixed editorial data; unused methods panic via the
// embedded nil interface.
type fakeOverrides struct {
	override.UseCase

	overrides   []model.OverrideRecord
	assignments []model.TagAssignment
	offers      []model.OfferRecord
	costs       map[string]*model.CostRecord

	mu       sync.Mutex
	assigned []string
	deleted  []string
}

func (f *fakeOverrides) ListOverrides(context.Context) ([]model.OverrideRecord, error) {
	return f.overrides, nil
}

func (f *fakeOverrides) ListAssignments(context.Context) ([]model.TagAssignment, error) {
	return f.assignments, nil
}

func (f *fakeOverrides) ListOffers(context.Context) ([]model.OfferRecord, error) {
	return f.offers, nil
}

func (f *fakeOverrides) GetOverride(_ context.Context, id string) (*model.OverrideRecord, error) {
	for _, o := range f.overrides {
		if identity.Matches(o.ProductID, id) {
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeOverrides) GetTagsFor(context.Context, string) ([]model.Tag, error) { return nil, nil }

func (f *fakeOverrides) GetOffer(context.Context, string) (*model.OfferRecord, error) {
	return nil, nil
}

func (f *fakeOverrides) GetCost(_ context.Context, id string) (*model.CostRecord, error) {
	return f.costs[identity.Normalize(id)], nil
}

func (f *fakeOverrides) AssignTag(_ context.Context, productID, _ string) error {
	if productID == "bad" {
		return errors.New("store unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, productID)
	return nil
}

func (f *fakeOverrides) DeleteProductData(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSearch struct {
	ids     []string
	err     error
	indexed []model.DisplayProduct
	deleted []string
}

func (s *fakeSearch) IndexProducts(_ context.Context, ps []model.DisplayProduct) error {
	s.indexed = ps
	return nil
}

func (s *fakeSearch) DeleteProduct(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeSearch) Search(context.Context, string, int) ([]string, int, error) {
	return s.ids, len(s.ids), s.err
}

type capturePublisher struct {
	mu      sync.Mutex
	actions []string
	failed  []map[string]error
}

func (p *capturePublisher) PublishBatch(_ context.Context, action string, _ []string, failed map[string]error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	p.failed = append(p.failed, failed)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func variant(id string, price float64, opts ...model.SelectedOption) model.CatalogVariant {
	return model.CatalogVariant{
		ID:              "gid://shop/ProductVariant/" + id,
		Price:           model.Money{Amount: price, CurrencyCode: "USD"},
		SelectedOptions: opts,
	}
}

func seedCatalog() *fakeCatalog {
	return &fakeCatalog{
		fail: map[string]error{},
		products: []model.CatalogProduct{
			{ID: "gid://shop/Product/1", Title: "Linen Shirt", Tags: []string{"summer"}, Variants: []model.CatalogVariant{variant("11", 40), variant("12", 45)}},
			{ID: "gid://shop/Product/2", Title: "Wool Coat", Variants: []model.CatalogVariant{variant("21", 120)}},
			{ID: "gid://shop/Product/3", Title: "Linen Pants", Variants: []model.CatalogVariant{variant("31", 60)}},
		},
	}
}

type fixture struct {
	uc        product.UseCase
	catalog   *fakeCatalog
	overrides *fakeOverrides
	search    *fakeSearch
	publisher *capturePublisher
	fetcher   *catalog.Fetcher
	view      *view.ProductView
}

func newFixture(t *testing.T, withSearch bool) *fixture {
	t.Helper()
	f := &fixture{
		catalog:   seedCatalog(),
		overrides: &fakeOverrides{costs: map[string]*model.CostRecord{}},
		publisher: &capturePublisher{},
		view:      view.New(),
	}
	f.fetcher = catalog.NewFetcher(f.catalog, catalog.NewCache(time.Hour), catalog.DefaultFetcherConfig(), logger.NewNop())

	notifier, err := notify.New("en")
	require.NoError(t, err)

	deps := Deps{
		Catalog:   f.catalog,
		Fetcher:   f.fetcher,
		Overrides: f.overrides,
		View:      f.view,
		Notifier:  notifier,
		Publisher: f.publisher,
	}
	if withSearch {
		f.search = &fakeSearch{}
		deps.Search = f.search
	}
	f.uc = NewProductUseCase(deps, logger.NewNop())
	return f
}

func (f *fixture) cached(t *testing.T, id string) model.CatalogProduct {
	t.Helper()
	e := f.fetcher.Cache().Snapshot()
	require.NotNil(t, e)
	idx := identity.NewIndex(e.Products, func(p model.CatalogProduct) string { return p.ID })
	p, ok := idx.Lookup(id)
	require.True(t, ok, "product %s not cached", id)
	return p
}

func ptr[T any](v T) *T { return &v }

func TestListProductsMergesEditorialData(t *testing.T) {
	f := newFixture(t, false)
	f.overrides.overrides = []model.OverrideRecord{{ProductID: "1", Title: ptr("Shirt - Linen"), Price: ptr(35.0), PriceEnabled: true}}
	sale := model.Tag{BaseModel: model.BaseModel{ID: "t1"}, Name: "Sale", Slug: "sale"}
	f.overrides.assignments = []model.TagAssignment{{ProductID: "gid://shop/Product/3", TagID: "t1", Tag: &sale}}

	list, err := f.uc.ListProducts(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)

	first := list.Products[0]
	require.Equal(t, "Shirt", first.Title)
	require.Equal(t, "Linen", first.Subtitle)
	require.Equal(t, 35.0, first.Price.Amount)
	require.True(t, first.PriceOverridden)

	tagged, err := f.uc.ListProducts(context.Background(), &dto.ProductFilters{Tag: "sale"})
	require.NoError(t, err)
	require.Len(t, tagged.Products, 1)
	require.Equal(t, "gid://shop/Product/3", tagged.Products[0].ID)

	native, err := f.uc.ListProducts(context.Background(), &dto.ProductFilters{Tag: "summer", CatalogTag: true})
	require.NoError(t, err)
	require.Len(t, native.Products, 1)
	require.Equal(t, "gid://shop/Product/1", native.Products[0].ID)
}

func TestBulkUpdatePricesPatchesOnlySucceededItems(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	initial, err := f.fetcher.FetchCatalog(ctx, 50, "")
	require.NoError(t, err)
	f.view.Mount(initial)

	f.catalog.fail["12"] = &apperr.StatusError{StatusCode: 500}

	summary, err := f.uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{Updates: []dto.PriceUpdate{
		{ProductID: "1", VariantID: "gid://shop/ProductVariant/11", Amount: 38},
		{ProductID: "1", VariantID: "gid://shop/ProductVariant/12", Amount: 99},
		{ProductID: "2", VariantID: "21", Amount: 110},
	}})

	var partial *apperr.PartialBatchError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, summary)
	require.Equal(t, 1, summary.FailedCount)
	require.Equal(t, []string{"gid://shop/ProductVariant/12"}, summary.FailedIDs)
	require.Equal(t, []string{"gid://shop/ProductVariant/11", "21"}, summary.SucceededIDs)
	require.Equal(t, "2 updated, 1 failed", summary.Message)

	shirt := f.cached(t, "1")
	require.Equal(t, 38.0, shirt.Variants[0].Price.Amount)
	require.Equal(t, 45.0, shirt.Variants[1].Price.Amount, "failed variant keeps its price")
	require.Equal(t, 38.0, shirt.PriceRange.Min.Amount)
	require.Equal(t, 110.0, f.cached(t, "2").Variants[0].Price.Amount)

	require.Equal(t, 38.0, f.view.Products()[0].Variants[0].Price.Amount, "the mounted view is patched too")
	require.Equal(t, 40.0, initial[0].Variants[0].Price.Amount, "earlier readers keep their copy")

	require.Equal(t, []string{ActionPriceUpdate}, f.publisher.actions)
	require.Contains(t, f.publisher.failed[0], "gid://shop/ProductVariant/12")
}

func TestBulkUpdatePricesPatchesVariantsAcrossIDForms(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.fetcher.FetchCatalog(ctx, 50, "")
	require.NoError(t, err)

	summary, err := f.uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{Updates: []dto.PriceUpdate{
		{ProductID: "1", VariantID: "11", Amount: 1},
		{ProductID: "gid://shop/Product/1", VariantID: "12", Amount: 2},
	}})
	require.NoError(t, err)
	require.Len(t, summary.SucceededIDs, 2)

	shirt := f.cached(t, "1")
	require.Equal(t, 1.0, shirt.Variants[0].Price.Amount)
	require.Equal(t, 2.0, shirt.Variants[1].Price.Amount)
	require.Equal(t, 2.0, shirt.PriceRange.Max.Amount)
}

func TestCatalogWritesTimeOutPerCall(t *testing.T) {
	f := newFixture(t, false)
	f.catalog.stall = true
	uc := NewProductUseCase(Deps{
		Catalog:         f.catalog,
		Fetcher:         f.fetcher,
		Overrides:       f.overrides,
		Publisher:       f.publisher,
		SingleTimeout:   20 * time.Millisecond,
		MutationTimeout: 20 * time.Millisecond,
	}, logger.NewNop())
	ctx := context.Background()

	summary, err := uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{Updates: []dto.PriceUpdate{
		{ProductID: "1", VariantID: "11", Amount: 1},
		{ProductID: "2", VariantID: "21", Amount: 2},
	}})
	var partial *apperr.PartialBatchError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, 2, summary.FailedCount)
	for _, id := range []string{"11", "21"} {
		require.ErrorIs(t, partial.Failed[id], apperr.ErrRequestTimeout, "variant %s", id)
	}

	err = uc.DeleteProduct(ctx, "2")
	require.ErrorIs(t, err, apperr.ErrRequestTimeout)
	require.Empty(t, f.overrides.deleted, "nothing cascades when the catalog delete times out")
}

func TestListProductsReadsMountedView(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.view.Mount(f.catalog.products)
	require.NoError(t, f.view.Apply(ctx, []model.CatalogProduct{
		{ID: "gid://shop/Product/1", Title: "Reconciled Shirt", Variants: []model.CatalogVariant{variant("11", 40)}},
		{ID: "gid://shop/Product/2", Title: "Wool Coat", Variants: []model.CatalogVariant{variant("21", 120)}},
	}))

	list, err := f.uc.ListProducts(ctx, &dto.ProductFilters{Count: 2})
	require.NoError(t, err)
	require.Equal(t, "Reconciled Shirt", list.Products[0].Title)
	require.Empty(t, f.catalog.filters, "served without a catalog round trip")

	list, err = f.uc.ListProducts(ctx, &dto.ProductFilters{Count: 3})
	require.NoError(t, err)
	require.Equal(t, "Linen Shirt", list.Products[0].Title, "the view is too short, so the catalog is read")
	require.Len(t, f.catalog.filters, 1)

	f.view.Unmount()
	list, err = f.uc.ListProducts(ctx, &dto.ProductFilters{Count: 2})
	require.NoError(t, err)
	require.Equal(t, "Linen Shirt", list.Products[0].Title)
	require.Len(t, f.catalog.filters, 2)
}

func TestBulkUpdatePricesRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{Updates: []dto.PriceUpdate{{ProductID: "1", VariantID: "11", Amount: -1}}})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.uc.BulkUpdatePrices(ctx, &dto.BulkPriceInput{Updates: []dto.PriceUpdate{
		{ProductID: "1", VariantID: "11", Amount: 1},
		{ProductID: "1", VariantID: "gid://shop/ProductVariant/11", Amount: 2},
	}})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument, "the same variant in both id forms is a duplicate")
	require.Empty(t, f.publisher.actions)
}

func TestBulkToggleTagDedupesAndReportsFailures(t *testing.T) {
	f := newFixture(t, false)

	summary, err := f.uc.BulkToggleTag(context.Background(), &dto.BulkTagInput{
		ProductIDs: []string{"1", "gid://shop/Product/1", "bad", "3"},
		TagID:      "t1",
		Assign:     true,
	})
	require.Error(t, err)
	require.Equal(t, []string{"1", "3"}, summary.SucceededIDs)
	require.Equal(t, []string{"bad"}, summary.FailedIDs)
	require.Contains(t, summary.Errors["bad"], "store unavailable")
	require.ElementsMatch(t, []string{"1", "3"}, f.overrides.assigned)
}

func TestDeleteProductCascades(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.fetcher.FetchCatalog(ctx, 50, "")
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteProduct(ctx, "2"))

	for _, p := range f.fetcher.Cache().Snapshot().Products {
		require.False(t, identity.Matches(p.ID, "2"))
	}
	require.Equal(t, []string{"2"}, f.catalog.deleted)
	require.Equal(t, []string{"2"}, f.overrides.deleted)
	require.Equal(t, []string{"2"}, f.search.deleted)
}

func TestSearchProductsFallsBackToCatalog(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.search.ids = []string{"3", "1"}
	hits, err := f.uc.SearchProducts(ctx, "linen", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"gid://shop/Product/3", "gid://shop/Product/1"}, []string{hits[0].ID, hits[1].ID})

	f.search.err = errors.New("cluster red")
	hits, err = f.uc.SearchProducts(ctx, "linen", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Contains(t, f.catalog.filters, "linen")

	_, err = f.uc.SearchProducts(ctx, "  ", 0)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestRenameOptionValueUpdatesDefinitionAndVariants(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	size := func(v string) model.SelectedOption { return model.SelectedOption{Name: "Size", Value: v} }
	f.catalog.products = []model.CatalogProduct{{
		ID:      "gid://shop/Product/9",
		Title:   "Tee",
		Options: []model.ProductOption{{Name: "Size", Values: []string{"Sm", "M"}}},
		Variants: []model.CatalogVariant{
			variant("91", 10, size("Sm")),
			variant("92", 10, size("Sm")),
			variant("93", 10, size("M")),
		},
	}}
	_, err := f.fetcher.FetchCatalog(ctx, 50, "")
	require.NoError(t, err)
	f.catalog.fail["92"] = errors.New("conflict")

	summary, err := f.uc.RenameOptionValue(ctx, &dto.RenameOptionInput{ProductID: "9", OptionName: "Size", From: "Sm", To: "S"})
	require.Error(t, err)
	require.Equal(t, []string{"gid://shop/ProductVariant/91"}, summary.SucceededIDs)
	require.Equal(t, []string{"S", "M"}, f.catalog.options[0].Values)
	require.Equal(t, "S", f.catalog.variants["gid://shop/ProductVariant/91"][0].Value)

	tee := f.cached(t, "9")
	require.Equal(t, []string{"S", "M"}, tee.Options[0].Values)
	require.Equal(t, "S", tee.Variants[0].SelectedOptions[0].Value)
	require.Equal(t, "Sm", tee.Variants[1].SelectedOptions[0].Value, "failed variant is not patched")
	require.Equal(t, "M", tee.Variants[2].SelectedOptions[0].Value)

	_, err = f.uc.RenameOptionValue(ctx, &dto.RenameOptionInput{ProductID: "9", OptionName: "Size", From: "M", To: "Sm"})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument, "renaming onto an existing value")
}

type stubGenerator struct {
	fail map[string]bool
}

func (g stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	for title := range g.fail {
		if strings.Contains(prompt, "Product: "+title) {
			return "", errors.New("blocked")
		}
	}
	return "Great **fit**.", nil
}

func TestGenerateThenSaveContent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.fetcher.FetchCatalog(ctx, 50, "")
	require.NoError(t, err)

	policy := batch.DefaultRetryPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	svc := content.NewService(stubGenerator{fail: map[string]bool{"Wool Coat": true}}, logger.NewNop(), content.WithRetryPolicy(policy))
	uc := NewProductUseCase(Deps{Catalog: f.catalog, Fetcher: f.fetcher, Overrides: f.overrides, Content: svc}, logger.NewNop())

	res, err := uc.GenerateContent(ctx, &dto.GenerateContentInput{ProductIDs: []string{"1", "2"}})
	require.Error(t, err)
	require.Len(t, res.Drafts, 1)
	require.Equal(t, "<p>Great <strong>fit</strong>.</p>", strings.TrimSpace(res.Drafts[0].HTML))
	require.Equal(t, []string{"2"}, res.Summary.FailedIDs)

	summary, err := uc.SaveGeneratedContent(ctx, &dto.SaveContentInput{Items: []dto.ContentItem{
		{ProductID: "1", HTML: res.Drafts[0].HTML + `<script>x()</script>`},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, summary.SucceededIDs)
	require.NotContains(t, f.cached(t, "1").DescriptionHTML, "<script>")
	require.Contains(t, f.cached(t, "1").DescriptionHTML, "<strong>fit</strong>")
}

func TestGenerateContentRequiresGenerator(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.uc.GenerateContent(context.Background(), &dto.GenerateContentInput{ProductIDs: []string{"1"}})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestGetProfitUsesDisplayPrice(t *testing.T) {
	f := newFixture(t, false)
	f.overrides.overrides = []model.OverrideRecord{{ProductID: "2", Price: ptr(100.0), PriceEnabled: true}}
	f.overrides.costs["2"] = &model.CostRecord{ProductID: "2", ProductCost: 60, ShippingCost: 15}

	p, err := f.uc.GetProfit(context.Background(), "gid://shop/Product/2")
	require.NoError(t, err)
	require.Equal(t, 100.0, p.SellingPrice)
	require.Equal(t, 75.0, p.TotalCost)
	require.Equal(t, 25.0, p.Profit)
	require.InDelta(t, 25.0, p.Margin, 1e-9)
	require.True(t, p.MarginDefined)

	_, err = f.uc.GetProfit(context.Background(), "404")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIndexCatalogPushesMergedProducts(t *testing.T) {
	f := newFixture(t, true)
	f.overrides.overrides = []model.OverrideRecord{{ProductID: "1", Title: ptr("Overridden")}}

	require.NoError(t, f.uc.IndexCatalog(context.Background(), f.catalog.products))
	require.Len(t, f.search.indexed, 3)
	require.Equal(t, "Overridden", f.search.indexed[0].Title)
}
