package model

import (
	"time"
)

type File struct {
	ID                 int64     `db:"id" json:"id"`
	PropertyID         int64     `db:"property_id" json:"property_id"`
	FolderID           *string   `db:"folder_id" json:"folder_id"` // nil = unfiled
	FolderName         *string   `db:"folder_name" json:"folder_name"`
	Filename           string    `db:"filename" json:"filename"`
	FileURL            string    `db:"file_url" json:"file_url"`
	StoragePublicID    *string   `db:"storage_public_id" json:"storage_public_id"`
	MimeType           *string   `db:"file_mime_type" json:"file_mime_type"`
	UploadedByUsername string    `db:"uploaded_by_username" json:"uploaded_by_username"`
	UploadedAt         time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// BlobRef is the slice of a file row needed to remove its stored object.
type BlobRef struct {
	FileID          int64   `db:"id"`
	StoragePublicID *string `db:"storage_public_id"`
	MimeType        *string `db:"file_mime_type"`
}
