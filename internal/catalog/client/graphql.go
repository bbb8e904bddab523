package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalog"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.uber.org/zap"
)

// HTTPClient matches the subset of http.Client used by GraphQLClient.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// GraphQLClient implements catalog.Service against a GraphQL admin endpoint.
type GraphQLClient struct {
	endpoint string
	token    string
	http     HTTPClient
	logger   logger.ZapLogger
}

var _ catalog.Service = (*GraphQLClient)(nil)

func NewGraphQLClient(endpoint, token string, httpClient HTTPClient, log logger.ZapLogger) (*GraphQLClient, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("catalog: endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("catalog: parse endpoint: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{
		endpoint: endpoint,
		token:    token,
		http:     httpClient,
		logger:   log,
	}, nil
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func userErrorsErr(action string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) == 0 {
			parts = append(parts, e.Message)
			continue
		}
		parts = append(parts, strings.Join(e.Field, ".")+": "+e.Message)
	}
	return fmt.Errorf("catalog: %s: %s", action, strings.Join(parts, "; "))
}

func (c *GraphQLClient) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{OperationName: op, Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("catalog: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Access-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("catalog: %s: %w", op, apperr.ErrRequestTimeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("catalog request rejected",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
		)
		statusErr := &apperr.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("catalog: %s: %w: %w", op, apperr.ErrNotFound, statusErr)
		}
		return fmt.Errorf("catalog: %s: %w", op, statusErr)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("catalog: %s: %w", op, apperr.ErrRequestTimeout)
		}
		return fmt.Errorf("catalog: decode %s: %w", op, err)
	}
	if len(payload.Errors) > 0 {
		msgs := make([]string, len(payload.Errors))
		for i, e := range payload.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("catalog: %s: %s", op, strings.Join(msgs, "; "))
	}
	if out == nil {
		return nil
	}
	if len(payload.Data) == 0 || string(payload.Data) == "null" {
		return fmt.Errorf("catalog: %s: empty data", op)
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return fmt.Errorf("catalog: decode %s data: %w", op, err)
	}
	return nil
}

func (c *GraphQLClient) ListProducts(ctx context.Context, count int, cursor, filter string) (*catalog.ListResult, error) {
	vars := map[string]any{"first": count}
	if cursor != "" {
		vars["after"] = cursor
	}
	if filter != "" {
		vars["query"] = filter
	}

	var out struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.do(ctx, "ListProducts", listProductsQuery, vars, &out); err != nil {
		return nil, err
	}

	res := &catalog.ListResult{
		Products:   make([]model.CatalogProduct, 0, len(out.Products.Edges)),
		HasMore:    out.Products.PageInfo.HasNextPage,
		NextCursor: out.Products.PageInfo.EndCursor,
	}
	for _, e := range out.Products.Edges {
		p, err := e.Node.toModel()
		if err != nil {
			return nil, fmt.Errorf("catalog: ListProducts: %w", err)
		}
		res.Products = append(res.Products, p)
	}
	return res, nil
}

func (c *GraphQLClient) GetProduct(ctx context.Context, id string) (*model.CatalogProduct, error) {
	var out struct {
		Product *productNode `json:"product"`
	}
	if err := c.do(ctx, "GetProduct", getProductQuery, map[string]any{"id": identity.ProductGID(id)}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("catalog: product %s: %w", id, apperr.ErrNotFound)
	}
	p, err := out.Product.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *GraphQLClient) GetProductByHandle(ctx context.Context, handle string) (*model.CatalogProduct, error) {
	var out struct {
		Product *productNode `json:"productByHandle"`
	}
	if err := c.do(ctx, "GetProductByHandle", getProductByHandleQuery, map[string]any{"handle": handle}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("catalog: product handle %q: %w", handle, apperr.ErrNotFound)
	}
	p, err := out.Product.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mutate runs a mutation whose payload is {<field>: {userErrors: [...]}}.
func (c *GraphQLClient) mutate(ctx context.Context, op, field, query string, vars map[string]any) (json.RawMessage, error) {
	var out map[string]json.RawMessage
	if err := c.do(ctx, op, query, vars, &out); err != nil {
		return nil, err
	}
	raw, ok := out[field]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("catalog: %s: missing %s payload", op, field)
	}
	var result struct {
		UserErrors []userError `json:"userErrors"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("catalog: decode %s payload: %w", op, err)
	}
	if err := userErrorsErr(op, result.UserErrors); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *GraphQLClient) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := c.mutate(ctx, "UpdateTitle", "productUpdate", productUpdateMutation, map[string]any{
		"input": map[string]any{"id": identity.ProductGID(id), "title": title},
	})
	return err
}

func (c *GraphQLClient) UpdateDescription(ctx context.Context, id, html string) error {
	_, err := c.mutate(ctx, "UpdateDescription", "productUpdate", productUpdateMutation, map[string]any{
		"input": map[string]any{"id": identity.ProductGID(id), "descriptionHtml": html},
	})
	return err
}

func (c *GraphQLClient) UpdatePrice(ctx context.Context, id, variantID string, amount float64) error {
	_, err := c.mutate(ctx, "UpdatePrice", "productVariantsBulkUpdate", variantsBulkUpdateMutation, map[string]any{
		"productId": identity.ProductGID(id),
		"variants": []map[string]any{{
			"id":    identity.VariantGID(variantID),
			"price": formatAmount(amount),
		}},
	})
	return err
}

func (c *GraphQLClient) UpdateVariant(ctx context.Context, id, variantID string, optionValues []model.SelectedOption) error {
	values := make([]map[string]any, len(optionValues))
	for i, o := range optionValues {
		values[i] = map[string]any{"optionName": o.Name, "name": o.Value}
	}
	_, err := c.mutate(ctx, "UpdateVariant", "productVariantsBulkUpdate", variantsBulkUpdateMutation, map[string]any{
		"productId": identity.ProductGID(id),
		"variants": []map[string]any{{
			"id":           identity.VariantGID(variantID),
			"optionValues": values,
		}},
	})
	return err
}

func (c *GraphQLClient) UpdateOptions(ctx context.Context, id string, options []model.ProductOption) error {
	in := make([]map[string]any, len(options))
	for i, o := range options {
		in[i] = map[string]any{"name": o.Name, "values": o.Values}
		if o.ID != "" {
			in[i]["id"] = o.ID
		}
	}
	_, err := c.mutate(ctx, "UpdateOptions", "productOptionsUpdate", optionsUpdateMutation, map[string]any{
		"productId": identity.ProductGID(id),
		"options":   in,
	})
	return err
}

func (c *GraphQLClient) AddImage(ctx context.Context, id, imageURL string) (*model.Image, error) {
	raw, err := c.mutate(ctx, "AddImage", "productCreateMedia", createMediaMutation, map[string]any{
		"productId": identity.ProductGID(id),
		"media": []map[string]any{{
			"originalSource":   imageURL,
			"mediaContentType": "IMAGE",
		}},
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Media []struct {
			ID  string `json:"id"`
			Alt string `json:"alt"`
		} `json:"media"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("catalog: decode AddImage media: %w", err)
	}
	img := &model.Image{URL: imageURL}
	if len(payload.Media) > 0 {
		img.ID = payload.Media[0].ID
		if payload.Media[0].Alt != "" {
			alt := payload.Media[0].Alt
			img.AltText = &alt
		}
	}
	return img, nil
}

func (c *GraphQLClient) DeleteImage(ctx context.Context, id, imageID string) error {
	_, err := c.mutate(ctx, "DeleteImage", "productDeleteMedia", deleteMediaMutation, map[string]any{
		"productId": identity.ProductGID(id),
		"mediaIds":  []string{identity.MediaGID(imageID)},
	})
	return err
}

func (c *GraphQLClient) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, "DeleteProduct", "productDelete", productDeleteMutation, map[string]any{
		"input": map[string]any{"id": identity.ProductGID(id)},
	})
	return err
}

func (c *GraphQLClient) CreateCheckout(ctx context.Context, lines []model.CheckoutLine) (string, error) {
	in := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		in = append(in, map[string]any{
			"merchandiseId": identity.VariantGID(l.VariantID),
			"quantity":      l.Quantity,
		})
	}
	if len(in) == 0 {
		return "", fmt.Errorf("catalog: CreateCheckout: %w: no lines", apperr.ErrInvalidArgument)
	}
	raw, err := c.mutate(ctx, "CreateCheckout", "cartCreate", cartCreateMutation, map[string]any{
		"input": map[string]any{"lines": in},
	})
	if err != nil {
		return "", err
	}
	var payload struct {
		Cart *struct {
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"cart"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("catalog: decode CreateCheckout cart: %w", err)
	}
	if payload.Cart == nil || payload.Cart.CheckoutURL == "" {
		return "", errors.New("catalog: CreateCheckout: no checkout url returned")
	}
	return payload.Cart.CheckoutURL, nil
}
