package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/model"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderExists   = errors.New("folder already exists")
)

type FolderRepository interface {
	WithTx(tx *sqlx.Tx) FolderRepository
	Create(ctx context.Context, folder *model.Folder) (bool, error)
	ByID(ctx context.Context, propertyID int64, id string) (*model.Folder, error)
	Folders(ctx context.Context, propertyID int64) ([]*model.Folder, error)
	Rename(ctx context.Context, propertyID int64, oldID, newID, newName string) (int64, error)
	DeleteMany(ctx context.Context, propertyID int64, ids []string) (int64, error)
}

type folderRepository struct {
	db DBTX
}

func NewFolderRepository(db DBTX) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) WithTx(tx *sqlx.Tx) FolderRepository {
	return &folderRepository{db: tx}
}

// Create inserts the folder unless one with the same id already exists for
// the property. It reports whether a row was inserted.
func (r *folderRepository) Create(ctx context.Context, folder *model.Folder) (bool, error) {
	query := `INSERT INTO folders (id, property_id, name, created_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (property_id, id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, folder.ID, folder.PropertyID, folder.Name, folder.CreatedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *folderRepository) ByID(ctx context.Context, propertyID int64, id string) (*model.Folder, error) {
	folder := &model.Folder{}
	query := `SELECT * FROM folders WHERE property_id = $1 AND id = $2`

	err := sqlxGet(ctx, r.db, folder, query, propertyID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}

	return folder, nil
}

func (r *folderRepository) Folders(ctx context.Context, propertyID int64) ([]*model.Folder, error) {
	folders := []*model.Folder{}
	query := `SELECT * FROM folders WHERE property_id = $1 ORDER BY name, id`

	err := sqlxSelect(ctx, r.db, &folders, query, propertyID)
	if err != nil {
		return nil, err
	}

	return folders, nil
}

// Rename changes the folder's id and name in place and returns the number of
// rows updated.
func (r *folderRepository) Rename(ctx context.Context, propertyID int64, oldID, newID, newName string) (int64, error) {
	query := `UPDATE folders SET id = $1, name = $2 WHERE property_id = $3 AND id = $4`

	result, err := r.db.ExecContext(ctx, query, newID, newName, propertyID, oldID)
	if isUniqueViolation(err) {
		return 0, ErrFolderExists
	}
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *folderRepository) DeleteMany(ctx context.Context, propertyID int64, ids []string) (int64, error) {
	query, args, err := inQuery(r.db, `DELETE FROM folders WHERE property_id = ? AND id IN (?)`, propertyID, ids)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
