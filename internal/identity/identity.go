// Package identity canonicalizes product and variant identifiers.
//
// The catalog addresses records with namespaced ids such as
// "gid://shop/Product/8123". Override rows were written with either that
// form or the bare trailing segment, so every cross-source join must compare
// normalized ids through Matches rather than raw strings.
package identity

import "strings"

const (
	scheme      = "gid://"
	defaultShop = "shop"

	TypeProduct = "Product"
	TypeVariant = "ProductVariant"
	TypeImage   = "ProductImage"
	TypeMedia   = "MediaImage"
)

// Normalize strips a "scheme://type/" prefix and returns the bare id.
// Already-bare ids and unrecognized formats are returned unchanged (trimmed).
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	i := strings.Index(id, "://")
	if i <= 0 {
		return id
	}
	rest := id[i+3:]
	// Query suffixes appear on some catalog ids (e.g. "?v=2").
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		rest = rest[:q]
	}
	slash := strings.LastIndexByte(rest, '/')
	if slash < 0 || slash == len(rest)-1 {
		return id
	}
	return rest[slash+1:]
}

// Matches reports whether a and b identify the same record. Empty ids never match.
func Matches(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// IsNamespaced reports whether id carries a scheme prefix.
func IsNamespaced(id string) bool {
	return Normalize(id) != strings.TrimSpace(id)
}

// GID rebuilds the namespaced catalog form for a bare id of the given type.
// Namespaced input is returned as is.
func GID(typ, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || IsNamespaced(id) {
		return id
	}
	return scheme + defaultShop + "/" + typ + "/" + id
}

func ProductGID(id string) string { return GID(TypeProduct, id) }
func VariantGID(id string) string { return GID(TypeVariant, id) }
func MediaGID(id string) string   { return GID(TypeMedia, id) }

// Index is a lookup keyed by normalized id.
type Index[T any] map[string]T

// NewIndex builds an Index over items using key to extract each item's id.
// The first item wins on collisions, so rows listed newest first resolve to
// the newest row.
func NewIndex[T any](items []T, key func(T) string) Index[T] {
	idx := make(Index[T], len(items))
	for _, it := range items {
		k := Normalize(key(it))
		if k == "" {
			continue
		}
		if _, dup := idx[k]; !dup {
			idx[k] = it
		}
	}
	return idx
}

// Lookup finds the entry matching id in either form.
func (idx Index[T]) Lookup(id string) (T, bool) {
	v, ok := idx[Normalize(id)]
	return v, ok
}

// Group collects items by normalized id, preserving input order per key.
func Group[T any](items []T, key func(T) string) map[string][]T {
	out := make(map[string][]T)
	for _, it := range items {
		if k := Normalize(key(it)); k != "" {
			out[k] = append(out[k], it)
		}
	}
	return out
}

// Contains reports whether any id in ids matches target.
func Contains(ids []string, target string) bool {
	for _, id := range ids {
		if Matches(id, target) {
			return true
		}
	}
	return false
}
