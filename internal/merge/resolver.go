// Package merge combines catalog records with their editorial data into
// display-ready products.
package merge

import (
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// DefaultSeparator splits "Title - Subtitle" when an override names none.
const DefaultSeparator = " - "

// SplitTitle splits title at the first sep. The subtitle is empty when sep
// does not occur or either side would be blank.
func SplitTitle(title, sep string) (string, string) {
	title = strings.TrimSpace(title)
	if sep == "" {
		sep = DefaultSeparator
	}
	head, tail, ok := strings.Cut(title, sep)
	if !ok {
		return title, ""
	}
	head, tail = strings.TrimSpace(head), strings.TrimSpace(tail)
	if head == "" || tail == "" {
		return title, ""
	}
	return head, tail
}

func separatorOf(o *model.OverrideRecord) string {
	if o != nil && o.TitleSeparator != nil && *o.TitleSeparator != "" {
		return *o.TitleSeparator
	}
	return DefaultSeparator
}

func resolveTitle(p *model.CatalogProduct, o *model.OverrideRecord) (string, string) {
	sep := separatorOf(o)
	if o != nil && o.Title != nil && strings.TrimSpace(*o.Title) != "" {
		title, subtitle := SplitTitle(*o.Title, sep)
		if subtitle == "" && o.Subtitle != nil {
			subtitle = strings.TrimSpace(*o.Subtitle)
		}
		return title, subtitle
	}
	return SplitTitle(p.Title, sep)
}

// resolvePrice uses the override price only when it is enabled and set. The
// two sources are never blended.
func resolvePrice(p *model.CatalogProduct, o *model.OverrideRecord) (model.Money, bool) {
	catalog := p.Price()
	if o != nil && o.PriceEnabled && o.Price != nil {
		return model.Money{Amount: *o.Price, CurrencyCode: catalog.CurrencyCode}, true
	}
	return catalog, false
}

// Badge returns the promotional badge for offer, or nil when none is shown.
func Badge(offer *model.OfferRecord) *model.OfferBadge {
	if offer == nil || (!offer.OfferActive && offer.DiscountPercent == nil) {
		return nil
	}
	b := &model.OfferBadge{
		DiscountPercent: offer.DiscountPercent,
		OriginalPrice:   offer.OriginalPrice,
		LowStock:        offer.LowStock,
	}
	if offer.OfferText != nil {
		b.Text = *offer.OfferText
	}
	if offer.OfferSubtext != nil {
		b.Subtext = *offer.OfferSubtext
	}
	return b
}

// Resolve merges one catalog product with at most one override, its assigned
// tags and at most one offer.
func Resolve(p model.CatalogProduct, o *model.OverrideRecord, tags []model.Tag, offer *model.OfferRecord) model.DisplayProduct {
	title, subtitle := resolveTitle(&p, o)
	price, overridden := resolvePrice(&p, o)

	d := model.DisplayProduct{
		ID:              p.ID,
		Handle:          p.Handle,
		Title:           title,
		Subtitle:        subtitle,
		Description:     p.Description,
		DescriptionHTML: p.DescriptionHTML,
		Price:           price,
		PriceOverridden: overridden,
		Images:          p.Images,
		Variants:        p.Variants,
		Options:         p.Options,
		CatalogTags:     p.Tags,
		Tags:            tags,
		Offer:           Badge(offer),
	}
	if o != nil && o.Description != nil && strings.TrimSpace(*o.Description) != "" {
		d.DescriptionHTML = *o.Description
	}
	if d.Tags == nil {
		d.Tags = []model.Tag{}
	}
	return d
}

// Sources is the editorial data joined against a catalog list.
type Sources struct {
	Overrides   []model.OverrideRecord
	Assignments []model.TagAssignment
	Offers      []model.OfferRecord
}

// ResolveAll resolves products in order, joining every source by normalized
// identity.
func ResolveAll(products []model.CatalogProduct, src Sources) []model.DisplayProduct {
	overrides := identity.NewIndex(src.Overrides, func(o model.OverrideRecord) string { return o.ProductID })
	offers := identity.NewIndex(src.Offers, func(o model.OfferRecord) string { return o.ProductID })
	assignments := identity.Group(src.Assignments, func(a model.TagAssignment) string { return a.ProductID })

	out := make([]model.DisplayProduct, len(products))
	for i, p := range products {
		var o *model.OverrideRecord
		if rec, ok := overrides.Lookup(p.ID); ok {
			o = &rec
		}
		var offer *model.OfferRecord
		if rec, ok := offers.Lookup(p.ID); ok {
			offer = &rec
		}
		out[i] = Resolve(p, o, tagsOf(assignments[identity.Normalize(p.ID)]), offer)
	}
	return out
}

func tagsOf(assignments []model.TagAssignment) []model.Tag {
	seen := make(map[string]bool, len(assignments))
	tags := make([]model.Tag, 0, len(assignments))
	for _, a := range assignments {
		if a.Tag == nil || seen[a.TagID] {
			continue
		}
		seen[a.TagID] = true
		tags = append(tags, *a.Tag)
	}
	return tags
}
