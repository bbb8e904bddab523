package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

// candidateClause selects rows keyed by the bare id or by any namespaced id
// ending in "/<id>". The caller narrows the result with identity.Matches.
const candidateClause = `(product_id = $1 OR product_id LIKE '%/' || $1)`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindOverrides(ctx context.Context, productID string) ([]model.OverrideRecord, error) {
	var rows []model.OverrideRecord
	query := `SELECT * FROM product_overrides WHERE ` + candidateClause + ` ORDER BY updated_at DESC`
	if err := r.DB.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGRepository) ListOverrides(ctx context.Context) ([]model.OverrideRecord, error) {
	var rows []model.OverrideRecord
	err := r.DB.SelectContext(ctx, &rows, `SELECT * FROM product_overrides ORDER BY updated_at DESC`)
	return rows, err
}

// UpsertOverride inserts or partially updates the row stored under key. Only
// the non-nil fields are written; the rest keep their stored values.
func (r *PGRepository) UpsertOverride(ctx context.Context, key string, f model.OverrideFields) (*model.OverrideRecord, error) {
	cols := []string{"product_id"}
	placeholders := []string{"$1"}
	args := []interface{}{key}
	sets := []string{}

	add := func(col string, v interface{}) {
		args = append(args, v)
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if f.Title != nil {
		add("title", *f.Title)
	}
	if f.Subtitle != nil {
		add("subtitle", *f.Subtitle)
	}
	if f.Description != nil {
		add("description", *f.Description)
	}
	if f.Price != nil {
		add("price", *f.Price)
	}
	if f.PriceEnabled != nil {
		add("price_enabled", *f.PriceEnabled)
	}
	if f.TitleSeparator != nil {
		add("title_separator", *f.TitleSeparator)
	}
	sets = append(sets, "updated_at = EXCLUDED.updated_at")

	query := fmt.Sprintf(`
        INSERT INTO product_overrides (%s, created_at, updated_at)
        VALUES (%s, NOW(), NOW())
        ON CONFLICT (product_id)
        DO UPDATE SET %s
        RETURNING *
    `, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "))

	var rec model.OverrideRecord
	if err := r.DB.GetContext(ctx, &rec, query, args...); err != nil {
		return nil, fmt.Errorf("upsert override: %w", err)
	}
	return &rec, nil
}

func (r *PGRepository) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.DB.SelectContext(ctx, &tags, `SELECT * FROM tags ORDER BY tag_group NULLS LAST, name ASC`)
	return tags, err
}

func (r *PGRepository) FindTagByID(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	err := r.DB.GetContext(ctx, &tag, `SELECT * FROM tags WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

func (r *PGRepository) CreateTag(ctx context.Context, t *model.Tag) error {
	query := `
        INSERT INTO tags (id, name, slug, tag_group, created_at, updated_at)
        VALUES (:id, :name, :slug, :tag_group, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, t)
	return err
}

type assignmentRow struct {
	ProductID string    `db:"product_id"`
	TagID     string    `db:"tag_id"`
	CreatedAt time.Time `db:"created_at"`
	TagName   string    `db:"tag_name"`
	TagSlug   string    `db:"tag_slug"`
	TagGroup  *string   `db:"tag_group"`
}

func (row assignmentRow) toModel() model.TagAssignment {
	return model.TagAssignment{
		ProductID: row.ProductID,
		TagID:     row.TagID,
		CreatedAt: row.CreatedAt,
		Tag: &model.Tag{
			BaseModel: model.BaseModel{ID: row.TagID},
			Name:      row.TagName,
			Slug:      row.TagSlug,
			Group:     row.TagGroup,
		},
	}
}

const assignmentSelect = `
    SELECT pt.product_id, pt.tag_id, pt.created_at,
           t.name AS tag_name, t.slug AS tag_slug, t.tag_group
    FROM product_tags pt
    JOIN tags t ON t.id = pt.tag_id
`

func (r *PGRepository) FindAssignments(ctx context.Context, productID string) ([]model.TagAssignment, error) {
	var rows []assignmentRow
	query := assignmentSelect + ` WHERE (pt.product_id = $1 OR pt.product_id LIKE '%/' || $1) ORDER BY t.name`
	if err := r.DB.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, err
	}
	out := make([]model.TagAssignment, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

func (r *PGRepository) ListAssignments(ctx context.Context) ([]model.TagAssignment, error) {
	var rows []assignmentRow
	if err := r.DB.SelectContext(ctx, &rows, assignmentSelect+` ORDER BY pt.product_id, t.name`); err != nil {
		return nil, err
	}
	out := make([]model.TagAssignment, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

func (r *PGRepository) CreateAssignment(ctx context.Context, a *model.TagAssignment) error {
	query := `
        INSERT INTO product_tags (product_id, tag_id, created_at)
        VALUES (:product_id, :tag_id, :created_at)
        ON CONFLICT (product_id, tag_id) DO NOTHING
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}

func (r *PGRepository) DeleteAssignments(ctx context.Context, keys []string, tagID string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM product_tags WHERE tag_id = ? AND product_id IN (?)`, tagID, keys)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) FindCosts(ctx context.Context, productID string) ([]model.CostRecord, error) {
	var rows []model.CostRecord
	query := `SELECT * FROM product_costs WHERE ` + candidateClause + ` ORDER BY updated_at DESC`
	if err := r.DB.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGRepository) UpsertCost(ctx context.Context, c *model.CostRecord) error {
	query := `
        INSERT INTO product_costs (product_id, product_cost, shipping_cost, notes, supplier_ref, updated_at)
        VALUES (:product_id, :product_cost, :shipping_cost, :notes, :supplier_ref, :updated_at)
        ON CONFLICT (product_id)
        DO UPDATE SET
            product_cost = EXCLUDED.product_cost,
            shipping_cost = EXCLUDED.shipping_cost,
            notes = EXCLUDED.notes,
            supplier_ref = COALESCE(EXCLUDED.supplier_ref, product_costs.supplier_ref),
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindOffers(ctx context.Context, productID string) ([]model.OfferRecord, error) {
	var rows []model.OfferRecord
	query := `SELECT * FROM product_offers WHERE ` + candidateClause + ` ORDER BY updated_at DESC`
	if err := r.DB.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGRepository) ListOffers(ctx context.Context) ([]model.OfferRecord, error) {
	var rows []model.OfferRecord
	err := r.DB.SelectContext(ctx, &rows, `SELECT * FROM product_offers ORDER BY updated_at DESC`)
	return rows, err
}

func (r *PGRepository) UpsertOffer(ctx context.Context, o *model.OfferRecord) error {
	query := `
        INSERT INTO product_offers (
            product_id, offer_active, discount_percent, original_price,
            offer_text, offer_subtext, low_stock_threshold, low_stock,
            expires_at, updated_at
        )
        VALUES (
            :product_id, :offer_active, :discount_percent, :original_price,
            :offer_text, :offer_subtext, :low_stock_threshold, :low_stock,
            :expires_at, :updated_at
        )
        ON CONFLICT (product_id)
        DO UPDATE SET
            offer_active = EXCLUDED.offer_active,
            discount_percent = EXCLUDED.discount_percent,
            original_price = EXCLUDED.original_price,
            offer_text = EXCLUDED.offer_text,
            offer_subtext = EXCLUDED.offer_subtext,
            low_stock_threshold = EXCLUDED.low_stock_threshold,
            low_stock = EXCLUDED.low_stock,
            expires_at = EXCLUDED.expires_at,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, o)
	return err
}

// DeleteProductData removes all editorial rows stored under any of keys.
func (r *PGRepository) DeleteProductData(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"product_overrides", "product_tags", "product_costs", "product_offers", "collection_products"} {
		query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE product_id IN (?)`, keys)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}
