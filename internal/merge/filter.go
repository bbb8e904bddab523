package merge

import (
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// TagFilter selects products by tag. Assigned tags are matched by id, slug or
// name; catalog-native tag strings are consulted only when CatalogNative is set.
type TagFilter struct {
	Value         string
	CatalogNative bool
}

func (f TagFilter) IsZero() bool { return strings.TrimSpace(f.Value) == "" }

func MatchesTagFilter(p model.DisplayProduct, f TagFilter) bool {
	if f.IsZero() {
		return true
	}
	want := strings.TrimSpace(f.Value)
	if f.CatalogNative {
		for _, t := range p.CatalogTags {
			if strings.EqualFold(strings.TrimSpace(t), want) {
				return true
			}
		}
		return false
	}
	for _, t := range p.Tags {
		if t.ID == want || t.Slug == want || strings.EqualFold(t.Name, want) {
			return true
		}
	}
	return false
}

// FilterByTag keeps the products matching f, preserving order.
func FilterByTag(products []model.DisplayProduct, f TagFilter) []model.DisplayProduct {
	if f.IsZero() {
		return products
	}
	out := make([]model.DisplayProduct, 0, len(products))
	for _, p := range products {
		if MatchesTagFilter(p, f) {
			out = append(out, p)
		}
	}
	return out
}
