package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/collection/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Collection) error {
	query := `
        INSERT INTO collections (id, name, slug, image_url, is_active, position, created_at, updated_at)
        VALUES (:id, :name, :slug, :image_url, :is_active, :position, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) findOne(ctx context.Context, column, value string) (*model.Collection, error) {
	var c model.Collection
	err := r.DB.GetContext(ctx, &c, `SELECT * FROM collections WHERE `+column+` = $1 LIMIT 1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Collection, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.Collection, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CollectionFilters) ([]model.Collection, int, error) {
	var collections []model.Collection
	var count int

	conditions := []string{}
	args := map[string]interface{}{}
	if f != nil && f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM collections"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM collections" + whereClause + " ORDER BY position ASC, name ASC"
	if f != nil && f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &collections, args); err != nil {
		return nil, 0, err
	}
	return collections, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Collection) error {
	query := `
        UPDATE collections
        SET name = :name,
            slug = :slug,
            image_url = :image_url,
            is_active = :is_active,
            position = :position,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

// Delete removes the collection; memberships cascade.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM collections WHERE id = $1", id)
	return err
}

func (r *PGRepository) AddMember(ctx context.Context, m *model.CollectionMembership) error {
	query := `
        INSERT INTO collection_products (collection_id, product_id, position, created_at)
        VALUES (:collection_id, :product_id, :position, :created_at)
        ON CONFLICT (collection_id, product_id)
        DO UPDATE SET position = EXCLUDED.position
    `
	_, err := r.DB.NamedExecContext(ctx, query, m)
	return err
}

func (r *PGRepository) RemoveMembers(ctx context.Context, collectionID string, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM collection_products WHERE collection_id = ? AND product_id IN (?)`, collectionID, keys)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) FindMembers(ctx context.Context, collectionID string) ([]model.CollectionMembership, error) {
	var rows []model.CollectionMembership
	err := r.DB.SelectContext(ctx, &rows,
		`SELECT * FROM collection_products WHERE collection_id = $1 ORDER BY position ASC, created_at ASC`, collectionID)
	return rows, err
}

func (r *PGRepository) FindMembershipsFor(ctx context.Context, productID string) ([]model.CollectionMembership, error) {
	var rows []model.CollectionMembership
	err := r.DB.SelectContext(ctx, &rows,
		`SELECT * FROM collection_products WHERE (product_id = $1 OR product_id LIKE '%/' || $1)`, productID)
	return rows, err
}
