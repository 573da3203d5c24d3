package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/model"
)

var (
	ErrDetailNotFound = errors.New("category detail not found")
)

type CategoryDetailRepository interface {
	WithTx(tx *sqlx.Tx) CategoryDetailRepository
	Create(ctx context.Context, detail *model.CategoryDetail) error
	ByID(ctx context.Context, propertyID, id int64) (*model.CategoryDetail, error)
	Details(ctx context.Context, propertyID int64, categoryName string) ([]*model.CategoryDetail, error)
	Update(ctx context.Context, detail *model.CategoryDetail) error
	Delete(ctx context.Context, propertyID, id int64) error
	DeleteByCategory(ctx context.Context, propertyID int64, categoryName string) (int64, error)
}

type categoryDetailRepository struct {
	db DBTX
}

func NewCategoryDetailRepository(db DBTX) CategoryDetailRepository {
	return &categoryDetailRepository{db: db}
}

func (r *categoryDetailRepository) WithTx(tx *sqlx.Tx) CategoryDetailRepository {
	return &categoryDetailRepository{db: tx}
}

func (r *categoryDetailRepository) Create(ctx context.Context, d *model.CategoryDetail) error {
	query := `INSERT INTO category_details (property_id, category_name, detail_name, detail_url,
	              detail_description, detail_logo_url, detail_username, detail_password, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		d.PropertyID,
		d.CategoryName,
		d.DetailName,
		d.DetailURL,
		d.DetailDescription,
		d.DetailLogoURL,
		d.DetailUsername,
		d.DetailPassword,
		d.CreatedAt,
	).Scan(&d.ID)
}

func (r *categoryDetailRepository) ByID(ctx context.Context, propertyID, id int64) (*model.CategoryDetail, error) {
	detail := &model.CategoryDetail{}
	query := `SELECT * FROM category_details WHERE id = $1 AND property_id = $2`

	err := sqlxGet(ctx, r.db, detail, query, id, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Details lists a property's vendor records. An empty categoryName lists all
// categories.
func (r *categoryDetailRepository) Details(ctx context.Context, propertyID int64, categoryName string) ([]*model.CategoryDetail, error) {
	details := []*model.CategoryDetail{}

	query := `SELECT * FROM category_details WHERE property_id = $1 ORDER BY category_name, detail_name, id`
	args := []any{propertyID}
	if categoryName != "" {
		query = `SELECT * FROM category_details WHERE property_id = $1 AND LOWER(category_name) = LOWER($2)
		         ORDER BY detail_name, id`
		args = append(args, categoryName)
	}

	err := sqlxSelect(ctx, r.db, &details, query, args...)
	if err != nil {
		return nil, err
	}

	return details, nil
}

// Update overwrites every column of the record, created_at included.
func (r *categoryDetailRepository) Update(ctx context.Context, d *model.CategoryDetail) error {
	query := `UPDATE category_details
	          SET category_name = $1, detail_name = $2, detail_url = $3, detail_description = $4,
	              detail_logo_url = $5, detail_username = $6, detail_password = $7, created_at = $8
	          WHERE id = $9 AND property_id = $10`

	result, err := r.db.ExecContext(ctx, query,
		d.CategoryName,
		d.DetailName,
		d.DetailURL,
		d.DetailDescription,
		d.DetailLogoURL,
		d.DetailUsername,
		d.DetailPassword,
		d.CreatedAt,
		d.ID,
		d.PropertyID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrDetailNotFound
	}

	return nil
}

func (r *categoryDetailRepository) Delete(ctx context.Context, propertyID, id int64) error {
	query := `DELETE FROM category_details WHERE id = $1 AND property_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, propertyID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrDetailNotFound
	}

	return nil
}

func (r *categoryDetailRepository) DeleteByCategory(ctx context.Context, propertyID int64, categoryName string) (int64, error) {
	query := `DELETE FROM category_details WHERE property_id = $1 AND LOWER(category_name) = LOWER($2)`

	result, err := r.db.ExecContext(ctx, query, propertyID, categoryName)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
