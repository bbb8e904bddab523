package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/identity"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// fakeService serves a fixed in-memory catalog in cursor-ordered pages.
type fakeService struct {
	mu       sync.Mutex
	products []model.CatalogProduct
	calls    []listCall
	failAt   int // 1-based call number that fails; 0 disables
	failErr  error
	delay    time.Duration
}

type listCall struct {
	count  int
	cursor string
	filter string
}

func newFakeService(n int) *fakeService {
	ps := make([]model.CatalogProduct, n)
	for i := range ps {
		id := strconv.Itoa(i + 1)
		ps[i] = model.CatalogProduct{
			ID:    identity.ProductGID(id),
			Title: "Product " + id,
			Variants: []model.CatalogVariant{{
				ID:    identity.VariantGID(id + "0"),
				Price: model.Money{Amount: 10, CurrencyCode: "USD"},
			}},
		}
	}
	return &fakeService{products: ps}
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) ListProducts(ctx context.Context, count int, cursor, filter string) (*ListResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, listCall{count: count, cursor: cursor, filter: filter})
	n := len(f.calls)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failAt > 0 && n == f.failAt {
		return nil, f.failErr
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := start + count
	if end > len(f.products) {
		end = len(f.products)
	}
	res := &ListResult{Products: append([]model.CatalogProduct(nil), f.products[start:end]...)}
	if end < len(f.products) {
		res.HasMore = true
		res.NextCursor = strconv.Itoa(end)
	}
	return res, nil
}

var errNotImplemented = errors.New("not implemented")

func (f *fakeService) GetProduct(context.Context, string) (*model.CatalogProduct, error) {
	return nil, errNotImplemented
}
func (f *fakeService) GetProductByHandle(context.Context, string) (*model.CatalogProduct, error) {
	return nil, errNotImplemented
}
func (f *fakeService) UpdateTitle(context.Context, string, string) error { return errNotImplemented }
func (f *fakeService) UpdatePrice(context.Context, string, string, float64) error {
	return errNotImplemented
}
func (f *fakeService) UpdateDescription(context.Context, string, string) error {
	return errNotImplemented
}
func (f *fakeService) UpdateOptions(context.Context, string, []model.ProductOption) error {
	return errNotImplemented
}
func (f *fakeService) UpdateVariant(context.Context, string, string, []model.SelectedOption) error {
	return errNotImplemented
}
func (f *fakeService) AddImage(context.Context, string, string) (*model.Image, error) {
	return nil, errNotImplemented
}
func (f *fakeService) DeleteImage(context.Context, string, string) error { return errNotImplemented }
func (f *fakeService) DeleteProduct(context.Context, string) error      { return errNotImplemented }
func (f *fakeService) CreateCheckout(context.Context, []model.CheckoutLine) (string, error) {
	return "", errNotImplemented
}
