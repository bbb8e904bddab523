package merge

import (
	"math"
	"testing"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func catalogProduct(id, title string, price float64) model.CatalogProduct {
	return model.CatalogProduct{
		ID:    id,
		Title: title,
		Tags:  []string{"Summer"},
		Variants: []model.CatalogVariant{
			{ID: id + "-v1", Price: model.Money{Amount: price, CurrencyCode: "USD"}},
		},
		PriceRange: model.PriceRange{
			Min: model.Money{Amount: price, CurrencyCode: "USD"},
			Max: model.Money{Amount: price, CurrencyCode: "USD"},
		},
	}
}

func TestResolveWithoutOverrideUsesCatalogVerbatim(t *testing.T) {
	p := catalogProduct("gid://shop/Product/1", "Classic Tee", 10)

	d := Resolve(p, nil, nil, nil)
	require.Equal(t, "Classic Tee", d.Title)
	require.Empty(t, d.Subtitle)
	require.Equal(t, 10.0, d.Price.Amount)
	require.False(t, d.PriceOverridden)
	require.Nil(t, d.Offer)
	require.NotNil(t, d.Tags)
}

func TestResolvePricePrecedence(t *testing.T) {
	p := catalogProduct("gid://shop/Product/1", "Tee", 10)
	o := &model.OverrideRecord{ProductID: "1", Price: ptr(15.0), PriceEnabled: false}

	d := Resolve(p, o, nil, nil)
	require.Equal(t, 10.0, d.Price.Amount)
	require.False(t, d.PriceOverridden)

	o.PriceEnabled = true
	d = Resolve(p, o, nil, nil)
	require.Equal(t, 15.0, d.Price.Amount)
	require.Equal(t, "USD", d.Price.CurrencyCode)
	require.True(t, d.PriceOverridden)

	o.Price = nil
	d = Resolve(p, o, nil, nil)
	require.Equal(t, 10.0, d.Price.Amount, "enabled without a price falls back to the catalog")
}

func TestResolveTitleSplitting(t *testing.T) {
	tests := []struct {
		name         string
		catalogTitle string
		override     *model.OverrideRecord
		wantTitle    string
		wantSubtitle string
	}{
		{
			name:         "override title with default separator",
			catalogTitle: "Catalog",
			override:     &model.OverrideRecord{Title: ptr("Hoodie - Midnight Blue")},
			wantTitle:    "Hoodie",
			wantSubtitle: "Midnight Blue",
		},
		{
			name:         "override title with custom separator",
			catalogTitle: "Catalog",
			override:     &model.OverrideRecord{Title: ptr("Hoodie | Blue - Navy"), TitleSeparator: ptr(" | ")},
			wantTitle:    "Hoodie",
			wantSubtitle: "Blue - Navy",
		},
		{
			name:         "override title without separator keeps stored subtitle",
			catalogTitle: "Catalog",
			override:     &model.OverrideRecord{Title: ptr("Hoodie"), Subtitle: ptr("Limited")},
			wantTitle:    "Hoodie",
			wantSubtitle: "Limited",
		},
		{
			name:         "blank override title falls back to catalog split",
			catalogTitle: "Mug - Ceramic",
			override:     &model.OverrideRecord{Title: ptr("   ")},
			wantTitle:    "Mug",
			wantSubtitle: "Ceramic",
		},
		{
			name:         "catalog title without separator",
			catalogTitle: "Mug",
			wantTitle:    "Mug",
		},
		{
			name:         "dangling separator is not split",
			catalogTitle: "Mug - ",
			wantTitle:    "Mug -",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(catalogProduct("1", tt.catalogTitle, 1), tt.override, nil, nil)
			require.Equal(t, tt.wantTitle, d.Title)
			require.Equal(t, tt.wantSubtitle, d.Subtitle)
		})
	}
}

func TestOfferBadge(t *testing.T) {
	require.Nil(t, Badge(nil))
	require.Nil(t, Badge(&model.OfferRecord{OriginalPrice: ptr(20.0)}))

	b := Badge(&model.OfferRecord{DiscountPercent: ptr(25.0), OriginalPrice: ptr(19.0)})
	require.NotNil(t, b)
	require.Equal(t, 19.0, *b.OriginalPrice, "original price is taken from the offer, not derived")

	b = Badge(&model.OfferRecord{OfferActive: true, OfferText: ptr("Flash sale"), LowStock: true})
	require.NotNil(t, b)
	require.Nil(t, b.OriginalPrice)
	require.Equal(t, "Flash sale", b.Text)
	require.True(t, b.LowStock)
}

func TestResolveAllJoinsAcrossIDForms(t *testing.T) {
	products := []model.CatalogProduct{
		catalogProduct("gid://shop/Product/1", "One", 5),
		catalogProduct("gid://shop/Product/2", "Two", 6),
		catalogProduct("gid://shop/Product/12", "Twelve", 7),
	}
	summer := &model.Tag{BaseModel: model.BaseModel{ID: "t1"}, Name: "Summer Sale", Slug: "summer-sale"}
	src := Sources{
		Overrides: []model.OverrideRecord{
			{ProductID: "1", Price: ptr(9.0), PriceEnabled: true},
			{ProductID: "gid://shop/Product/2", Title: ptr("Deux - Blue")},
		},
		Assignments: []model.TagAssignment{
			{ProductID: "2", TagID: "t1", Tag: summer},
			{ProductID: "gid://shop/Product/2", TagID: "t1", Tag: summer},
		},
		Offers: []model.OfferRecord{{ProductID: "12", OfferActive: true}},
	}

	got := ResolveAll(products, src)
	require.Len(t, got, 3)
	require.Equal(t, 9.0, got[0].Price.Amount)
	require.Equal(t, "Deux", got[1].Title)
	require.Len(t, got[1].Tags, 1)
	require.Nil(t, got[0].Offer)
	require.Nil(t, got[1].Offer)
	require.NotNil(t, got[2].Offer)
	require.Empty(t, got[2].Tags)

	require.Len(t, FilterByTag(got, TagFilter{Value: "summer-sale"}), 1)
	require.Len(t, FilterByTag(got, TagFilter{Value: "summer sale"}), 1)
	require.Empty(t, FilterByTag(got, TagFilter{Value: "Summer"}), "catalog-native tags are ignored by default")
	require.Len(t, FilterByTag(got, TagFilter{Value: "summer", CatalogNative: true}), 3)
	require.Len(t, FilterByTag(got, TagFilter{}), 3)
}

func TestResolveAllPrefersFirstRowPerProduct(t *testing.T) {
	products := []model.CatalogProduct{catalogProduct("gid://shop/Product/1", "One", 5)}
	src := Sources{
		Overrides: []model.OverrideRecord{
			{ProductID: "1", Title: ptr("Newest")},
			{ProductID: "gid://shop/Product/1", Title: ptr("Oldest")},
		},
		Offers: []model.OfferRecord{
			{ProductID: "gid://shop/Product/1", OfferActive: true, OfferText: ptr("Now")},
			{ProductID: "1", OfferActive: true, OfferText: ptr("Before")},
		},
	}

	got := ResolveAll(products, src)
	require.Equal(t, "Newest", got[0].Title)
	require.Equal(t, "Now", got[0].Offer.Text)
}

func TestComputeProfit(t *testing.T) {
	cost := &model.CostRecord{ProductCost: 4, ShippingCost: 1}

	p := ComputeProfit(20, cost)
	require.Equal(t, 15.0, p.Profit)
	require.InDelta(t, 75.0, p.Margin, 1e-9)
	require.True(t, p.MarginDefined)

	p = ComputeProfit(0, cost)
	require.Equal(t, -5.0, p.Profit)
	require.Equal(t, 0.0, p.Margin)
	require.False(t, p.MarginDefined)
	require.False(t, math.IsNaN(p.Margin))

	p = ComputeProfit(10, nil)
	require.Equal(t, 10.0, p.Profit)
	require.Equal(t, 100.0, p.Margin)
}

func TestPatchProductsClonesOnlyTargets(t *testing.T) {
	original := []model.CatalogProduct{
		catalogProduct("gid://shop/Product/1", "One", 5),
		catalogProduct("gid://shop/Product/2", "Two", 6),
	}
	original[0].Options = []model.ProductOption{{Name: "Size", Values: []string{"S", "M"}}}
	original[0].Variants[0].SelectedOptions = []model.SelectedOption{{Name: "Size", Value: "S"}}
	in := append([]model.CatalogProduct(nil), original...)

	reducer := PatchProducts(map[string]ProductPatch{
		"1": func(p *model.CatalogProduct) {
			SetVariantPrice("gid://shop/Product/1-v1", 8)(p)
			RenameOptionValue("Size", "S", "Small")(p)
		},
		"gid://shop/Product/2": SetTitle("Renamed"),
	})
	out := reducer(in)

	require.Equal(t, 8.0, out[0].Variants[0].Price.Amount)
	require.Equal(t, 8.0, out[0].PriceRange.Min.Amount)
	require.Equal(t, []string{"Small", "M"}, out[0].Options[0].Values)
	require.Equal(t, "Small", out[0].Variants[0].SelectedOptions[0].Value)
	require.Equal(t, "Renamed", out[1].Title)

	require.Equal(t, 5.0, original[0].Variants[0].Price.Amount, "shared data must stay untouched")
	require.Equal(t, "S", original[0].Options[0].Values[0])
	require.Equal(t, "Two", original[1].Title)

	left := RemoveProducts("2")(out)
	require.Len(t, left, 1)
	require.Equal(t, "gid://shop/Product/1", left[0].ID)
}

func TestPatchProductsAppliesPatchesKeyedInBothForms(t *testing.T) {
	p := catalogProduct("gid://shop/Product/1", "One", 40)
	p.Variants = append(p.Variants, model.CatalogVariant{ID: "gid://shop/Product/1-v2", Price: model.Money{Amount: 45, CurrencyCode: "USD"}})

	out := PatchProducts(map[string]ProductPatch{
		"1":                    SetVariantPrice("gid://shop/Product/1-v1", 1),
		"gid://shop/Product/1": SetVariantPrice("gid://shop/Product/1-v2", 2),
	})([]model.CatalogProduct{p})

	require.Equal(t, 1.0, out[0].Variants[0].Price.Amount)
	require.Equal(t, 2.0, out[0].Variants[1].Price.Amount)
	require.Equal(t, 1.0, out[0].PriceRange.Min.Amount)
	require.Equal(t, 2.0, out[0].PriceRange.Max.Amount)
}
