package merge

import (
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// ProductPatch edits a private copy of a cached product.
type ProductPatch func(p *model.CatalogProduct)

// PatchProducts returns a reducer for catalog.Cache.Patch. Each patch is keyed
// by product id in either form, and patches whose keys name the same product
// are all applied. Untouched products are shared, patched ones are cloned
// first.
func PatchProducts(patches map[string]ProductPatch) func([]model.CatalogProduct) []model.CatalogProduct {
	byID := make(map[string]ProductPatch, len(patches))
	for id, fn := range patches {
		k := identity.Normalize(id)
		if k == "" || fn == nil {
			continue
		}
		if prev, ok := byID[k]; ok {
			byID[k] = Chain(prev, fn)
			continue
		}
		byID[k] = fn
	}
	return func(products []model.CatalogProduct) []model.CatalogProduct {
		for i := range products {
			fn, ok := byID[identity.Normalize(products[i].ID)]
			if !ok {
				continue
			}
			c := products[i].Clone()
			fn(&c)
			products[i] = c
		}
		return products
	}
}

// Chain applies patches in order.
func Chain(patches ...ProductPatch) ProductPatch {
	return func(p *model.CatalogProduct) {
		for _, fn := range patches {
			fn(p)
		}
	}
}

// RemoveProducts returns a reducer dropping every product matching ids.
func RemoveProducts(ids ...string) func([]model.CatalogProduct) []model.CatalogProduct {
	return func(products []model.CatalogProduct) []model.CatalogProduct {
		out := make([]model.CatalogProduct, 0, len(products))
		for _, p := range products {
			if !identity.Contains(ids, p.ID) {
				out = append(out, p)
			}
		}
		return out
	}
}

// SetVariantPrice patches the matching variant's price and recomputes the
// product's price range.
func SetVariantPrice(variantID string, amount float64) ProductPatch {
	return func(p *model.CatalogProduct) {
		for i := range p.Variants {
			if identity.Matches(p.Variants[i].ID, variantID) {
				p.Variants[i].Price.Amount = amount
			}
		}
		recomputeRange(p)
	}
}

func SetTitle(title string) ProductPatch {
	return func(p *model.CatalogProduct) { p.Title = title }
}

func SetDescriptionHTML(html string) ProductPatch {
	return func(p *model.CatalogProduct) { p.DescriptionHTML = html }
}

// RenameOptionValue renames value `from` to `to` on option name, in the option
// definition and in every variant selection.
func RenameOptionValue(name, from, to string) ProductPatch {
	return func(p *model.CatalogProduct) {
		for i := range p.Options {
			if p.Options[i].Name != name {
				continue
			}
			for j, v := range p.Options[i].Values {
				if v == from {
					p.Options[i].Values[j] = to
				}
			}
		}
		for i := range p.Variants {
			for j, so := range p.Variants[i].SelectedOptions {
				if so.Name == name && so.Value == from {
					p.Variants[i].SelectedOptions[j].Value = to
				}
			}
		}
	}
}

func recomputeRange(p *model.CatalogProduct) {
	if len(p.Variants) == 0 {
		return
	}
	lo, hi := p.Variants[0].Price, p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price.Amount < lo.Amount {
			lo = v.Price
		}
		if v.Price.Amount > hi.Amount {
			hi = v.Price
		}
	}
	p.PriceRange = model.PriceRange{Min: lo, Max: hi}
}
