package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalog/client"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

func newServer(t *testing.T, handler func(req capturedRequest) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.Header.Get("X-Access-Token"))
		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

func newClient(t *testing.T, ts *httptest.Server) *client.GraphQLClient {
	t.Helper()
	c, err := client.NewGraphQLClient(ts.URL, "secret", ts.Client(), logger.NewNop())
	require.NoError(t, err)
	return c
}

const listPage = `{"data":{"products":{
	"pageInfo":{"hasNextPage":true,"endCursor":"c1"},
	"edges":[{"node":{
		"id":"gid://shop/Product/1","handle":"tee","title":"Tee - Black",
		"tags":["summer"],
		"priceRange":{"minVariantPrice":{"amount":"10.00","currencyCode":"USD"},"maxVariantPrice":{"amount":"12.50","currencyCode":"USD"}},
		"images":{"edges":[{"node":{"id":"gid://shop/ProductImage/7","url":"https://cdn/x.png","altText":null}}]},
		"options":[{"id":"o1","name":"Size","values":["S","M"]}],
		"variants":{"edges":[{"node":{"id":"gid://shop/ProductVariant/11","title":"S","availableForSale":true,
			"price":{"amount":"10.00","currencyCode":"USD"},"selectedOptions":[{"name":"Size","value":"S"}]}}]}
	}}]
}}}`

func TestListProductsDecodesPage(t *testing.T) {
	ts, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, listPage
	})
	c := newClient(t, ts)

	res, err := c.ListProducts(context.Background(), 25, "c0", "tag:summer")
	require.NoError(t, err)
	require.True(t, res.HasMore)
	require.Equal(t, "c1", res.NextCursor)
	require.Len(t, res.Products, 1)

	p := res.Products[0]
	require.Equal(t, "Tee - Black", p.Title)
	require.Equal(t, 12.5, p.PriceRange.Max.Amount)
	require.Equal(t, []model.SelectedOption{{Name: "Size", Value: "S"}}, p.Variants[0].SelectedOptions)
	require.Nil(t, p.Images[0].AltText)

	req := (*seen)[0]
	require.Equal(t, "ListProducts", req.OperationName)
	require.EqualValues(t, 25, req.Variables["first"])
	require.Equal(t, "c0", req.Variables["after"])
	require.Equal(t, "tag:summer", req.Variables["query"])
}

func TestGetProductNotFound(t *testing.T) {
	ts, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"product":null}}`
	})
	_, err := newClient(t, ts).GetProduct(context.Background(), "42")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpstreamNotFoundStatus(t *testing.T) {
	ts, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusNotFound, `{"errors":[{"message":"no such shop"}]}`
	})
	err := newClient(t, ts).DeleteProduct(context.Background(), "1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.False(t, apperr.Retryable(err))

	var se *apperr.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestDeleteImageSendsNamespacedIDs(t *testing.T) {
	ts, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"productDeleteMedia":{"deletedMediaIds":["x"],"userErrors":[]}}}`
	})
	c := newClient(t, ts)
	require.NoError(t, c.DeleteImage(context.Background(), "1", "7"))
	require.NoError(t, c.DeleteImage(context.Background(), "1", "gid://shop/ProductImage/8"))

	vars := (*seen)[0].Variables
	require.Equal(t, "gid://shop/Product/1", vars["productId"])
	require.Equal(t, []any{"gid://shop/MediaImage/7"}, vars["mediaIds"])
	require.Equal(t, []any{"gid://shop/ProductImage/8"}, (*seen)[1].Variables["mediaIds"])
}

func TestUpdatePriceSendsNamespacedIDs(t *testing.T) {
	ts, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"productVariantsBulkUpdate":{"productVariants":[{"id":"x"}],"userErrors":[]}}}`
	})
	require.NoError(t, newClient(t, ts).UpdatePrice(context.Background(), "1", "11", 19.5))

	vars := (*seen)[0].Variables
	require.Equal(t, "gid://shop/Product/1", vars["productId"])
	variants := vars["variants"].([]any)
	v := variants[0].(map[string]any)
	require.Equal(t, "gid://shop/ProductVariant/11", v["id"])
	require.Equal(t, "19.50", v["price"])
}

func TestMutationUserErrorsSurface(t *testing.T) {
	ts, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"productUpdate":{"product":null,"userErrors":[{"field":["title"],"message":"can't be blank"}]}}}`
	})
	err := newClient(t, ts).UpdateTitle(context.Background(), "1", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "title: can't be blank")
}

func TestStatusErrorsAreClassified(t *testing.T) {
	ts, _ := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusTooManyRequests, `{"errors":[{"message":"throttled"}]}`
	})
	err := newClient(t, ts).DeleteProduct(context.Background(), "1")
	require.True(t, apperr.Retryable(err))
}

func TestDeadlineBecomesRequestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(ts.Close)
	c, err := client.NewGraphQLClient(ts.URL, "", ts.Client(), logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = c.ListProducts(ctx, 1, "", "")
	require.ErrorIs(t, err, apperr.ErrRequestTimeout)
}

func TestCreateCheckoutReturnsURL(t *testing.T) {
	ts, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"cartCreate":{"cart":{"checkoutUrl":"https://shop/checkout/abc"},"userErrors":[]}}}`
	})
	url, err := newClient(t, ts).CreateCheckout(context.Background(), []model.CheckoutLine{
		{VariantID: "11", Quantity: 2},
		{VariantID: "12", Quantity: 0},
	})
	require.NoError(t, err)
	require.Equal(t, "https://shop/checkout/abc", url)

	lines := (*seen)[0].Variables["input"].(map[string]any)["lines"].([]any)
	require.Len(t, lines, 1)
}
