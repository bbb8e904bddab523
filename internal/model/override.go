package model

import "time"

// OverrideRecord holds editorial overrides for one product. Absence means the
// catalog values are used verbatim.
type OverrideRecord struct {
	ProductID      string    `db:"product_id" json:"product_id"`
	Title          *string   `db:"title" json:"title"`
	Subtitle       *string   `db:"subtitle" json:"subtitle"`
	Description    *string   `db:"description" json:"description"`
	Price          *float64  `db:"price" json:"price"`
	PriceEnabled   bool      `db:"price_enabled" json:"price_enabled"`
	TitleSeparator *string   `db:"title_separator" json:"title_separator"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OverrideFields is a partial update. Nil fields are left untouched.
type OverrideFields struct {
	Title          *string  `json:"title,omitempty"`
	Subtitle       *string  `json:"subtitle,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	PriceEnabled   *bool    `json:"price_enabled,omitempty"`
	TitleSeparator *string  `json:"title_separator,omitempty"`
}

// Empty reports whether the update carries no fields.
func (f OverrideFields) Empty() bool {
	return f.Title == nil && f.Subtitle == nil && f.Description == nil &&
		f.Price == nil && f.PriceEnabled == nil && f.TitleSeparator == nil
}

type Tag struct {
	BaseModel
	Name  string  `db:"name" json:"name"`
	Slug  string  `db:"slug" json:"slug"`
	Group *string `db:"tag_group" json:"group"`
}

type TagAssignment struct {
	ProductID string    `db:"product_id" json:"product_id"`
	TagID     string    `db:"tag_id" json:"tag_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Tag       *Tag      `db:"-" json:"tag,omitempty"`
}

type CostRecord struct {
	ProductID    string    `db:"product_id" json:"product_id"`
	ProductCost  float64   `db:"product_cost" json:"product_cost"`
	ShippingCost float64   `db:"shipping_cost" json:"shipping_cost"`
	Notes        *string   `db:"notes" json:"notes"`
	SupplierRef  *string   `db:"supplier_ref" json:"supplier_ref"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type OfferRecord struct {
	ProductID         string     `db:"product_id" json:"product_id"`
	OfferActive       bool       `db:"offer_active" json:"offer_active"`
	DiscountPercent   *float64   `db:"discount_percent" json:"discount_percent"`
	OriginalPrice     *float64   `db:"original_price" json:"original_price"`
	OfferText         *string    `db:"offer_text" json:"offer_text"`
	OfferSubtext      *string    `db:"offer_subtext" json:"offer_subtext"`
	LowStockThreshold *int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	LowStock          bool       `db:"low_stock" json:"low_stock"`
	ExpiresAt         *time.Time `db:"expires_at" json:"expires_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
