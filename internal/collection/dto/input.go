package dto

type CreateCollectionInput struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url"`
	Position int    `json:"position"`
}

type UpdateCollectionInput struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}
