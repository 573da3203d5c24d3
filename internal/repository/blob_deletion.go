package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/model"
)

// BlobDeletionRepository is the outbox of stored objects still to be removed
// from blob storage.
type BlobDeletionRepository interface {
	WithTx(tx *sqlx.Tx) BlobDeletionRepository
	Enqueue(ctx context.Context, publicID, resourceType, lastError string) error
	Pending(ctx context.Context, maxAttempts, limit int) ([]*model.BlobDeletion, error)
	Done(ctx context.Context, ids []int64) error
	Failed(ctx context.Context, id int64, lastError string) error
	Resolve(ctx context.Context, resourceType string, publicIDs []string) error
}

type blobDeletionRepository struct {
	db DBTX
}

func NewBlobDeletionRepository(db DBTX) BlobDeletionRepository {
	return &blobDeletionRepository{db: db}
}

func (r *blobDeletionRepository) WithTx(tx *sqlx.Tx) BlobDeletionRepository {
	return &blobDeletionRepository{db: tx}
}

func (r *blobDeletionRepository) Enqueue(ctx context.Context, publicID, resourceType, lastError string) error {
	query := `INSERT INTO blob_deletions (public_id, resource_type, attempts, last_error, created_at, updated_at)
	          VALUES ($1, $2, 0, $3, $4, $5)
	          ON CONFLICT (public_id, resource_type) DO UPDATE SET last_error = excluded.last_error, updated_at = excluded.updated_at`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, publicID, resourceType, lastError, now, now)
	return err
}

func (r *blobDeletionRepository) Pending(ctx context.Context, maxAttempts, limit int) ([]*model.BlobDeletion, error) {
	pending := []*model.BlobDeletion{}
	query := `SELECT * FROM blob_deletions WHERE attempts < $1 ORDER BY id LIMIT $2`

	err := sqlxSelect(ctx, r.db, &pending, query, maxAttempts, limit)
	if err != nil {
		return nil, err
	}

	return pending, nil
}

func (r *blobDeletionRepository) Done(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := inQuery(r.db, `DELETE FROM blob_deletions WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *blobDeletionRepository) Failed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE blob_deletions SET attempts = attempts + 1, last_error = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, lastError, time.Now().UTC(), id)
	return err
}

// Resolve removes entries by object identity, for callers that deleted the
// objects directly rather than through Pending.
func (r *blobDeletionRepository) Resolve(ctx context.Context, resourceType string, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}

	query, args, err := inQuery(r.db, `DELETE FROM blob_deletions WHERE resource_type = ? AND public_id IN (?)`, resourceType, publicIDs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
