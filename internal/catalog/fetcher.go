package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-catalog-sync/internal/catalog"

type FetcherConfig struct {
	// BroadFetchThreshold is the smallest unfiltered count that reads and
	// writes the cache.
	BroadFetchThreshold int
	// SinglePageSize is the largest count served by one request; it is also
	// the page size of paginated loops.
	SinglePageSize          int
	SingleRequestTimeout    time.Duration
	PaginatedRequestTimeout time.Duration
}

func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		BroadFetchThreshold:     50,
		SinglePageSize:          250,
		SingleRequestTimeout:    10 * time.Second,
		PaginatedRequestTimeout: 30 * time.Second,
	}
}

// Fetcher reads the catalog page by page and maintains the broad-fetch cache.
type Fetcher struct {
	svc    Service
	cache  *Cache
	cfg    FetcherConfig
	logger logger.ZapLogger
	tracer trace.Tracer
}

func NewFetcher(svc Service, cache *Cache, cfg FetcherConfig, log logger.ZapLogger) *Fetcher {
	def := DefaultFetcherConfig()
	if cfg.BroadFetchThreshold <= 0 {
		cfg.BroadFetchThreshold = def.BroadFetchThreshold
	}
	if cfg.SinglePageSize <= 0 {
		cfg.SinglePageSize = def.SinglePageSize
	}
	if cfg.SingleRequestTimeout <= 0 {
		cfg.SingleRequestTimeout = def.SingleRequestTimeout
	}
	if cfg.PaginatedRequestTimeout <= 0 {
		cfg.PaginatedRequestTimeout = def.PaginatedRequestTimeout
	}
	return &Fetcher{
		svc:    svc,
		cache:  cache,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

func (f *Fetcher) Cache() *Cache { return f.cache }

func (f *Fetcher) Config() FetcherConfig { return f.cfg }

// FetchCatalog returns up to count products. Filtered queries always hit the
// catalog; broad unfiltered queries are served from the cache when it is valid.
func (f *Fetcher) FetchCatalog(ctx context.Context, count int, filter string) ([]model.CatalogProduct, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", apperr.ErrInvalidArgument)
	}
	filter = strings.TrimSpace(filter)
	broad := filter == "" && count >= f.cfg.BroadFetchThreshold

	if broad {
		if products, ok := f.cache.Get(count); ok {
			f.logger.Debug("catalog cache hit", zap.Int("count", count), zap.Int("returned", len(products)))
			return products, nil
		}
	}
	return f.fetch(ctx, count, filter, broad)
}

// Refresh performs a broad fetch without consulting the cache, then replaces
// the cache with the result.
func (f *Fetcher) Refresh(ctx context.Context, count int) ([]model.CatalogProduct, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", apperr.ErrInvalidArgument)
	}
	return f.fetch(ctx, count, "", true)
}

func (f *Fetcher) fetch(ctx context.Context, count int, filter string, writeCache bool) ([]model.CatalogProduct, error) {
	var token uint64
	if writeCache {
		token = f.cache.Begin()
	}

	products, hasMore, err := f.collect(ctx, count, filter)
	if err != nil {
		f.logger.Warn("catalog fetch failed",
			zap.Int("count", count),
			zap.String("filter", filter),
			zap.Error(err),
		)
		return nil, err
	}

	if writeCache {
		// A cancelled caller must not publish what it read.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		complete := len(products) < count || !hasMore
		if !f.cache.Commit(token, products, complete) {
			f.logger.Debug("discarding superseded catalog fetch", zap.Int("count", len(products)))
		}
	}
	return products, nil
}

// collect issues sequential cursor-ordered requests until count products are
// accumulated or the catalog is exhausted.
func (f *Fetcher) collect(ctx context.Context, count int, filter string) ([]model.CatalogProduct, bool, error) {
	if count <= f.cfg.SinglePageSize {
		res, err := f.page(ctx, count, "", filter, f.cfg.SingleRequestTimeout)
		if err != nil {
			return nil, false, err
		}
		products := res.Products
		if len(products) > count {
			products = products[:count]
		}
		return products, res.HasMore, nil
	}

	products := make([]model.CatalogProduct, 0, count)
	cursor := ""
	hasMore := true
	for hasMore && len(products) < count {
		size := count - len(products)
		if size > f.cfg.SinglePageSize {
			size = f.cfg.SinglePageSize
		}
		res, err := f.page(ctx, size, cursor, filter, f.cfg.PaginatedRequestTimeout)
		if err != nil {
			return nil, false, err
		}
		products = append(products, res.Products...)
		hasMore = res.HasMore && res.NextCursor != ""
		cursor = res.NextCursor
		if len(res.Products) == 0 {
			break
		}
	}
	if len(products) > count {
		products = products[:count]
		hasMore = true
	}
	return products, hasMore, nil
}

func (f *Fetcher) page(ctx context.Context, size int, cursor, filter string, timeout time.Duration) (*ListResult, error) {
	ctx, span := f.tracer.Start(ctx, "catalog.listProducts", trace.WithAttributes(
		attribute.Int("catalog.page_size", size),
		attribute.Bool("catalog.filtered", filter != ""),
	))
	defer span.End()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := f.svc.ListProducts(reqCtx, size, cursor, filter)
	if err != nil {
		err = classify(ctx, reqCtx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res == nil {
		err := fmt.Errorf("%w: empty response", apperr.ErrCatalogFetchFailed)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.returned", len(res.Products)))
	return res, nil
}

// classify maps a transport error onto the fetch failure kinds. A cancelled
// parent context is passed through untouched.
func classify(parent, req context.Context, err error) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	if apperr.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(req.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperr.ErrRequestTimeout, err)
	}
	if errors.Is(err, apperr.ErrCatalogFetchFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrCatalogFetchFailed, err)
}
