package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	WithTx(tx *sqlx.Tx) FileRepository
	Create(ctx context.Context, file *model.File) error
	ByID(ctx context.Context, propertyID, id int64) (*model.File, error)
	Files(ctx context.Context, propertyID int64, folderID *string) ([]*model.File, error)
	Move(ctx context.Context, propertyID int64, ids []int64, folderID, folderName string) (int64, error)
	RenameFolder(ctx context.Context, propertyID int64, oldFolderID, newFolderID, newFolderName string) (int64, error)
	BlobRefs(ctx context.Context, propertyID int64, ids []int64) ([]model.BlobRef, error)
	BlobRefsInFolders(ctx context.Context, propertyID int64, folderIDs []string) ([]model.BlobRef, error)
	DeleteMany(ctx context.Context, propertyID int64, ids []int64) (int64, error)
	DeleteInFolders(ctx context.Context, propertyID int64, folderIDs []string) (int64, error)
}

type fileRepository struct {
	db DBTX
}

func NewFileRepository(db DBTX) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) WithTx(tx *sqlx.Tx) FileRepository {
	return &fileRepository{db: tx}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `INSERT INTO files (property_id, folder_id, folder_name, filename, file_url, storage_public_id,
	              file_mime_type, uploaded_by_username, uploaded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		file.PropertyID,
		file.FolderID,
		file.FolderName,
		file.Filename,
		file.FileURL,
		file.StoragePublicID,
		file.MimeType,
		file.UploadedByUsername,
		file.UploadedAt,
	).Scan(&file.ID)
}

func (r *fileRepository) ByID(ctx context.Context, propertyID, id int64) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1 AND property_id = $2`

	err := sqlxGet(ctx, r.db, file, query, id, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

// Files lists a property's files, newest first. A nil folderID lists every
// file; a pointer to "" lists only unfiled ones.
func (r *fileRepository) Files(ctx context.Context, propertyID int64, folderID *string) ([]*model.File, error) {
	files := []*model.File{}

	query := `SELECT * FROM files WHERE property_id = $1 ORDER BY uploaded_at DESC, id DESC`
	args := []any{propertyID}
	switch {
	case folderID == nil:
	case *folderID == "":
		query = `SELECT * FROM files WHERE property_id = $1 AND folder_id IS NULL ORDER BY uploaded_at DESC, id DESC`
	default:
		query = `SELECT * FROM files WHERE property_id = $1 AND folder_id = $2 ORDER BY uploaded_at DESC, id DESC`
		args = append(args, *folderID)
	}

	err := sqlxSelect(ctx, r.db, &files, query, args...)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Move(ctx context.Context, propertyID int64, ids []int64, folderID, folderName string) (int64, error) {
	query, args, err := inQuery(r.db,
		`UPDATE files SET folder_id = ?, folder_name = ? WHERE property_id = ? AND id IN (?)`,
		folderID, folderName, propertyID, ids)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *fileRepository) RenameFolder(ctx context.Context, propertyID int64, oldFolderID, newFolderID, newFolderName string) (int64, error) {
	query := `UPDATE files SET folder_id = $1, folder_name = $2 WHERE property_id = $3 AND folder_id = $4`

	result, err := r.db.ExecContext(ctx, query, newFolderID, newFolderName, propertyID, oldFolderID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *fileRepository) BlobRefs(ctx context.Context, propertyID int64, ids []int64) ([]model.BlobRef, error) {
	query, args, err := inQuery(r.db,
		`SELECT id, storage_public_id, file_mime_type FROM files WHERE property_id = ? AND id IN (?) ORDER BY id`,
		propertyID, ids)
	if err != nil {
		return nil, err
	}

	var refs []model.BlobRef
	err = sqlxSelect(ctx, r.db, &refs, query, args...)
	if err != nil {
		return nil, err
	}

	return refs, nil
}

func (r *fileRepository) BlobRefsInFolders(ctx context.Context, propertyID int64, folderIDs []string) ([]model.BlobRef, error) {
	query, args, err := inQuery(r.db,
		`SELECT id, storage_public_id, file_mime_type FROM files WHERE property_id = ? AND folder_id IN (?) ORDER BY id`,
		propertyID, folderIDs)
	if err != nil {
		return nil, err
	}

	var refs []model.BlobRef
	err = sqlxSelect(ctx, r.db, &refs, query, args...)
	if err != nil {
		return nil, err
	}

	return refs, nil
}

func (r *fileRepository) DeleteMany(ctx context.Context, propertyID int64, ids []int64) (int64, error) {
	query, args, err := inQuery(r.db, `DELETE FROM files WHERE property_id = ? AND id IN (?)`, propertyID, ids)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *fileRepository) DeleteInFolders(ctx context.Context, propertyID int64, folderIDs []string) (int64, error) {
	query, args, err := inQuery(r.db, `DELETE FROM files WHERE property_id = ? AND folder_id IN (?)`, propertyID, folderIDs)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
