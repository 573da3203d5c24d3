package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/storage"
)

type FileService struct {
	db                     *sqlx.DB
	authService            *AuthService
	fileRepository         repository.FileRepository
	folderRepository       repository.FolderRepository
	blobDeletionRepository repository.BlobDeletionRepository
	blobs                  storage.BlobStore
	purger                 *BlobPurger
}

func NewFileService(
	database *sqlx.DB,
	authService *AuthService,
	fileRepository repository.FileRepository,
	folderRepository repository.FolderRepository,
	blobDeletionRepository repository.BlobDeletionRepository,
	blobs storage.BlobStore,
	purger *BlobPurger,
) *FileService {
	return &FileService{
		db:                     database,
		authService:            authService,
		fileRepository:         fileRepository,
		folderRepository:       folderRepository,
		blobDeletionRepository: blobDeletionRepository,
		blobs:                  blobs,
		purger:                 purger,
	}
}

type UploadFileRequest struct {
	Credentials
	PropertyID int64
	FolderID   string
	Filename   string
	MimeType   string
}

func (r UploadFileRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.Filename, ozzo.Required, ozzo.Length(1, 255)),
		)
	})
}

type MoveFilesRequest struct {
	Credentials
	PropertyID int64   `json:"property_id"`
	FileIDs    []int64 `json:"file_ids"`
	FolderID   string  `json:"folder_id"`
	FolderName string  `json:"folder_name"`
}

func (r MoveFilesRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.FileIDs, ozzo.Required, ozzo.Each(ozzo.Min(int64(1)))),
			ozzo.Field(&r.FolderID, ozzo.Required),
		)
	})
}

type DeleteFilesRequest struct {
	Credentials
	PropertyID int64   `json:"property_id"`
	FileIDs    []int64 `json:"file_ids"`
}

func (r DeleteFilesRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.FileIDs, ozzo.Required, ozzo.Each(ozzo.Min(int64(1)))),
		)
	})
}

// Upload stores the bytes first and records the file only once storage
// succeeded. A record that fails to save has its blob removed again.
func (s *FileService) Upload(ctx context.Context, req UploadFileRequest, body io.Reader) (*model.File, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID)
	if err != nil {
		return nil, err
	}

	file := &model.File{
		PropertyID:         req.PropertyID,
		Filename:           strings.TrimSpace(req.Filename),
		UploadedByUsername: user.Username,
		UploadedAt:         time.Now().UTC(),
	}

	if req.FolderID != "" {
		folder, err := s.folderRepository.ByID(ctx, req.PropertyID, req.FolderID)
		if err != nil {
			return nil, err
		}
		file.FolderID = &folder.ID
		file.FolderName = &folder.Name
	}

	if req.MimeType != "" {
		file.MimeType = &req.MimeType
	}

	folderPath := fmt.Sprintf("properties/%d", req.PropertyID)
	uploaded, err := s.blobs.Upload(ctx, body, folderPath, uuid.NewString(), req.MimeType)
	if err != nil {
		slog.Error("blob upload failed", "property_id", req.PropertyID, "filename", file.Filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	file.FileURL = uploaded.SecureURL
	file.StoragePublicID = &uploaded.PublicID

	err = s.fileRepository.Create(ctx, file)
	if err != nil {
		s.discardUpload(ctx, uploaded)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file uploaded",
		"property_id", file.PropertyID,
		"file_id", file.ID,
		"folder_id", req.FolderID,
		"resource_type", uploaded.ResourceType,
	)

	return file, nil
}

// discardUpload removes a blob whose record was never written. If that fails
// too the blob is handed to the outbox.
func (s *FileService) discardUpload(ctx context.Context, uploaded *storage.UploadResult) {
	report := s.purger.purge(ctx, blobBuckets{uploaded.ResourceType: {uploaded.PublicID}})
	if report.Pending > 0 {
		slog.Error("failed to delete blob during cleanup", "public_id", uploaded.PublicID)
	}
}

// Move points every listed file at an existing folder of the property. Either
// all files move or none do.
func (s *FileService) Move(ctx context.Context, req MoveFilesRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return 0, err
	}

	ids := uniqueIDs(req.FileIDs)
	var moved int64

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		folder, err := s.folderRepository.WithTx(tx).ByID(ctx, req.PropertyID, req.FolderID)
		if err != nil {
			return err
		}

		folderName := strings.TrimSpace(req.FolderName)
		if folderName == "" {
			folderName = folder.Name
		}

		n, err := s.fileRepository.WithTx(tx).Move(ctx, req.PropertyID, ids, folder.ID, folderName)
		if err != nil {
			return fmt.Errorf("failed to move files: %w", err)
		}
		if n != int64(len(ids)) {
			return ErrFilesNotFound
		}
		moved = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("files moved", "property_id", req.PropertyID, "folder_id", req.FolderID, "count", moved)
	return moved, nil
}

type DeleteFilesResult struct {
	Files int64       `json:"files"`
	Blobs PurgeReport `json:"blobs"`
}

// DeleteMany removes the listed files and their blobs. Row deletion is
// all-or-nothing; blob failures are left to the outbox.
func (s *FileService) DeleteMany(ctx context.Context, req DeleteFilesRequest) (*DeleteFilesResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	ids := uniqueIDs(req.FileIDs)
	result := &DeleteFilesResult{}
	var buckets blobBuckets

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		files := s.fileRepository.WithTx(tx)

		refs, err := files.BlobRefs(ctx, req.PropertyID, ids)
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}

		var skipped []int64
		buckets, skipped = bucketRefs(refs)
		if len(skipped) > 0 {
			slog.Warn("files without storage id", "property_id", req.PropertyID, "file_ids", skipped)
		}

		result.Files, err = files.DeleteMany(ctx, req.PropertyID, ids)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
		if result.Files != int64(len(ids)) {
			return ErrFilesNotFound
		}

		return s.purger.record(ctx, s.blobDeletionRepository.WithTx(tx), buckets)
	})
	if err != nil {
		return nil, err
	}

	result.Blobs = s.purger.purge(ctx, buckets)

	slog.Info("files deleted",
		"property_id", req.PropertyID,
		"files", result.Files,
		"blobs_deleted", result.Blobs.Deleted,
		"blobs_pending", result.Blobs.Pending,
	)

	return result, nil
}

// Files lists a property's files. A nil folderID lists every file, an empty
// one lists unfiled files.
func (s *FileService) Files(ctx context.Context, creds Credentials, propertyID int64, folderID *string) ([]*model.File, error) {
	if _, _, err := s.authService.Guard(ctx, creds, propertyID); err != nil {
		return nil, err
	}

	return s.fileRepository.Files(ctx, propertyID, folderID)
}
