package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/model"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
)

type PropertyRepository interface {
	WithTx(tx *sqlx.Tx) PropertyRepository
	Create(ctx context.Context, property *model.Property) error
	ByID(ctx context.Context, id int64) (*model.Property, error)
	Properties(ctx context.Context) ([]*model.Property, error)
	UpdateCategories(ctx context.Context, id int64, categories model.Categories) error
}

type propertyRepository struct {
	db DBTX
}

func NewPropertyRepository(db DBTX) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) WithTx(tx *sqlx.Tx) PropertyRepository {
	return &propertyRepository{db: tx}
}

func (r *propertyRepository) Create(ctx context.Context, property *model.Property) error {
	query := `INSERT INTO properties (title, image_url, description, categories, is_foreign, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		property.Title,
		property.ImageURL,
		property.Description,
		property.Categories,
		property.IsForeign,
		property.CreatedAt,
	).Scan(&property.ID)
}

func (r *propertyRepository) ByID(ctx context.Context, id int64) (*model.Property, error) {
	property := &model.Property{}
	query := `SELECT * FROM properties WHERE id = $1`

	err := sqlxGet(ctx, r.db, property, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}

	return property, nil
}

func (r *propertyRepository) Properties(ctx context.Context) ([]*model.Property, error) {
	var properties []*model.Property
	query := `SELECT * FROM properties ORDER BY created_at DESC, id DESC`

	err := sqlxSelect(ctx, r.db, &properties, query)
	if err != nil {
		return nil, err
	}

	return properties, nil
}

func (r *propertyRepository) UpdateCategories(ctx context.Context, id int64, categories model.Categories) error {
	query := `UPDATE properties SET categories = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, categories, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrPropertyNotFound
	}

	return nil
}
