package model

import "time"

type Collection struct {
	BaseModel
	Name     string  `db:"name" json:"name"`
	Slug     string  `db:"slug" json:"slug"`
	ImageURL *string `db:"image_url" json:"image_url"`
	IsActive bool    `db:"is_active" json:"is_active"`
	Position int     `db:"position" json:"position"`
}

type CollectionMembership struct {
	CollectionID string    `db:"collection_id" json:"collection_id"`
	ProductID    string    `db:"product_id" json:"product_id"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
