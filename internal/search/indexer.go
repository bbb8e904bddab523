// Package search keeps a storefront search index in step with the merged
// catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.uber.org/zap"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
}

// Document is the indexed form of a display product.
type Document struct {
	ID          string   `json:"id"`
	Handle      string   `json:"handle"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Tags        []string `json:"tags"`
	CatalogTags []string `json:"catalog_tags"`
	OnOffer     bool     `json:"on_offer"`
}

func NewDocument(p model.DisplayProduct) Document {
	d := Document{
		ID:          identity.Normalize(p.ID),
		Handle:      p.Handle,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Description: p.Description,
		Price:       p.Price.Amount,
		Currency:    p.Price.CurrencyCode,
		Tags:        make([]string, 0, len(p.Tags)),
		CatalogTags: p.CatalogTags,
		OnOffer:     p.Offer != nil,
	}
	for _, t := range p.Tags {
		d.Tags = append(d.Tags, t.Slug)
	}
	return d
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.ZapLogger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.ZapLogger) *Indexer {
	return &Indexer{client: client, index: index, logger: log}
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexProducts upserts every product in a single bulk request.
func (i *Indexer) IndexProducts(ctx context.Context, products []model.DisplayProduct) error {
	if len(products) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		doc := NewDocument(p)
		meta := map[string]any{"index": map[string]any{"_index": i.index, "_id": doc.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()),
		i.client.Bulk.WithContext(ctx),
		i.client.Bulk.WithIndex(i.index),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index: %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !br.Errors {
		return nil
	}
	failed := 0
	for _, item := range br.Items {
		for _, r := range item {
			if r.Error != nil {
				failed++
				i.logger.Warn("document not indexed",
					zap.String("id", r.ID), zap.String("type", r.Error.Type), zap.String("reason", r.Error.Reason))
			}
		}
	}
	return fmt.Errorf("bulk index: %d of %d documents failed", failed, len(products))
}

func (i *Indexer) DeleteProduct(ctx context.Context, productID string) error {
	res, err := i.client.Delete(i.index, identity.Normalize(productID), i.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete document: %s", res.Status())
	}
	return nil
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":           { "type": "keyword" },
			"handle":       { "type": "keyword" },
			"title":        { "type": "text" },
			"subtitle":     { "type": "text" },
			"description":  { "type": "text" },
			"price":        { "type": "double" },
			"currency":     { "type": "keyword" },
			"tags":         { "type": "keyword" },
			"catalog_tags": { "type": "keyword" },
			"on_offer":     { "type": "boolean" }
		}
	}
}`

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index: %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}
	i.logger.Info("created search index", zap.String("index", i.index))
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of products matching query, best match first.
func (i *Indexer) Search(ctx context.Context, query string, size int) ([]string, int, error) {
	if size <= 0 {
		size = 50
	}
	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^3", "subtitle^2", "tags^2", "catalog_tags", "description"},
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search: %s", res.Status())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, len(sr.Hits.Hits))
	for n, h := range sr.Hits.Hits {
		ids[n] = h.ID
	}
	return ids, sr.Hits.Total.Value, nil
}
