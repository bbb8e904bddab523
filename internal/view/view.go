// Package view holds the working product list of a consuming view.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// ErrUnmounted is returned when results arrive for a view that is gone.
var ErrUnmounted = errors.New("view is not mounted")

type ProductView struct {
	mu        sync.RWMutex
	products  []model.CatalogProduct
	mounted   bool
	version   uint64
	updatedAt time.Time
	now       func() time.Time
}

func New() *ProductView {
	return &ProductView{now: time.Now}
}

// Mount marks the view live and seeds it with initial.
func (v *ProductView) Mount(initial []model.CatalogProduct) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = true
	v.set(initial)
}

// Unmount drops the list; later writes are discarded.
func (v *ProductView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	v.products = nil
	v.version++
}

func (v *ProductView) Mounted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mounted
}

// Replace swaps the whole list. It reports false when the view is unmounted.
func (v *ProductView) Replace(products []model.CatalogProduct) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return false
	}
	v.set(products)
	return true
}

// Apply is Replace shaped as a poll sink.
func (v *ProductView) Apply(_ context.Context, products []model.CatalogProduct) error {
	if !v.Replace(products) {
		return ErrUnmounted
	}
	return nil
}

// Patch runs reducer over a copy of the list.
func (v *ProductView) Patch(reducer func([]model.CatalogProduct) []model.CatalogProduct) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return false
	}
	in := make([]model.CatalogProduct, len(v.products))
	copy(in, v.products)
	v.products = reducer(in)
	v.version++
	return true
}

// Products returns a copy of the current list.
func (v *ProductView) Products() []model.CatalogProduct {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]model.CatalogProduct, len(v.products))
	copy(out, v.products)
	return out
}

// Version increases on every change.
func (v *ProductView) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

func (v *ProductView) UpdatedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.updatedAt
}

func (v *ProductView) set(products []model.CatalogProduct) {
	v.products = append([]model.CatalogProduct(nil), products...)
	v.version++
	v.updatedAt = v.now()
}
