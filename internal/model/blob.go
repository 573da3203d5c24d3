package model

import (
	"time"
)

// BlobDeletion is an outbox row for a stored object whose file record is gone
// but whose deletion from blob storage has not been confirmed.
type BlobDeletion struct {
	ID           int64     `db:"id"`
	PublicID     string    `db:"public_id"`
	ResourceType string    `db:"resource_type"`
	Attempts     int       `db:"attempts"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
