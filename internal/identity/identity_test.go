package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"gid://shop/Product/8123":        "8123",
		"gid://shopify/ProductVariant/9": "9",
		"8123":                           "8123",
		"  8123 ":                        "8123",
		"gid://shop/Product/77?v=2":      "77",
		"gid://shop/Product/":            "gid://shop/Product/",
		"not-an-id":                      "not-an-id",
		"":                               "",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, id := range []string{"gid://shop/Product/1", "1", "weird://x", "a/b/c"} {
		once := Normalize(id)
		require.Equal(t, once, Normalize(once), id)
	}
}

func TestMatchesSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"gid://shop/Product/1", "1"},
		{"1", "gid://shop/Product/1"},
		{"gid://shop/Product/1", "gid://shop/Product/2"},
		{"", ""},
		{"", "1"},
	}
	for _, p := range pairs {
		require.Equal(t, Matches(p[0], p[1]), Matches(p[1], p[0]), p)
	}
	require.True(t, Matches("gid://shop/Product/1", "1"))
	require.False(t, Matches("gid://shop/Product/1", "2"))
	require.False(t, Matches("", ""))
}

func TestGIDRoundTrip(t *testing.T) {
	require.Equal(t, "gid://shop/Product/5", ProductGID("5"))
	require.Equal(t, "gid://other/Product/5", ProductGID("gid://other/Product/5"))
	require.Equal(t, "5", Normalize(VariantGID("5")))
	require.Equal(t, "", ProductGID(""))
}

func TestIndexLookupEitherForm(t *testing.T) {
	type row struct{ ID, V string }
	idx := NewIndex([]row{{"gid://shop/Product/1", "a"}, {"2", "b"}}, func(r row) string { return r.ID })

	v, ok := idx.Lookup("1")
	require.True(t, ok)
	require.Equal(t, "a", v.V)

	v, ok = idx.Lookup("gid://shop/Product/2")
	require.True(t, ok)
	require.Equal(t, "b", v.V)

	_, ok = idx.Lookup("3")
	require.False(t, ok)
}

func TestIndexKeepsFirstRowAcrossForms(t *testing.T) {
	type row struct{ ID, V string }
	idx := NewIndex([]row{{"1", "newest"}, {"gid://shop/Product/1", "oldest"}}, func(r row) string { return r.ID })

	v, ok := idx.Lookup("gid://shop/Product/1")
	require.True(t, ok)
	require.Equal(t, "newest", v.V)
	require.Len(t, idx, 1)
}

func TestGroupAndContains(t *testing.T) {
	g := Group([]string{"gid://shop/Product/1", "1", "2"}, func(s string) string { return s })
	require.Len(t, g["1"], 2)
	require.Len(t, g["2"], 1)
	require.True(t, Contains([]string{"4", "gid://shop/Product/1"}, "1"))
	require.False(t, Contains(nil, "1"))
}
