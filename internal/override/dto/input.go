package dto

import "time"

type CreateTagInput struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"` // derived from Name when empty
	Group string `json:"group"`
}

type SaveCostInput struct {
	ProductID    string  `json:"-"`
	ProductCost  float64 `json:"product_cost"`
	ShippingCost float64 `json:"shipping_cost"`
	Notes        *string `json:"notes"`
	SupplierRef  *string `json:"supplier_ref"`
}

type SaveOfferInput struct {
	ProductID         string     `json:"-"`
	OfferActive       bool       `json:"offer_active"`
	DiscountPercent   *float64   `json:"discount_percent"`
	OriginalPrice     *float64   `json:"original_price"`
	OfferText         *string    `json:"offer_text"`
	OfferSubtext      *string    `json:"offer_subtext"`
	LowStockThreshold *int       `json:"low_stock_threshold"`
	LowStock          bool       `json:"low_stock"`
	ExpiresAt         *time.Time `json:"expires_at"`
}
