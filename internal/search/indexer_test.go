package search

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Indexer {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	client, err := NewClient(Config{Addresses: []string{ts.URL}})
	require.NoError(t, err)
	return NewIndexer(client, "products", logger.NewNop())
}

func TestIndexProductsSendsBulkBody(t *testing.T) {
	var lines []string
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/_bulk"))
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	err := idx.IndexProducts(context.Background(), []model.DisplayProduct{{
		ID:    "gid://shop/Product/7",
		Title: "Tee",
		Price: model.Money{Amount: 12, CurrencyCode: "USD"},
		Tags:  []model.Tag{{Slug: "summer"}},
		Offer: &model.OfferBadge{},
	}})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	require.Equal(t, "7", meta["index"]["_id"])

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	require.Equal(t, []string{"summer"}, doc.Tags)
	require.True(t, doc.OnOffer)
	require.Equal(t, 12.0, doc.Price)
}

func TestIndexProductsReportsItemFailures(t *testing.T) {
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"_id":"1","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}]}`))
	})
	err := idx.IndexProducts(context.Background(), []model.DisplayProduct{{ID: "1"}})
	require.ErrorContains(t, err, "1 of 1 documents failed")
}

func TestDeleteProductIgnoresMissing(t *testing.T) {
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/products/_doc/9"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	require.NoError(t, idx.DeleteProduct(context.Background(), "gid://shop/Product/9"))
}

func TestEnsureIndexCreatesMissingIndex(t *testing.T) {
	var created bool
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created = true
			require.Equal(t, "/products", r.URL.Path)
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.True(t, created)
}

func TestSearchReturnsHitIDs(t *testing.T) {
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/products/_search"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.EqualValues(t, 10, body["size"])
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[{"_id":"4"},{"_id":"2"}]}}`))
	})
	ids, total, err := idx.Search(context.Background(), "tee", 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []string{"4", "2"}, ids)
}
