package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/validation"
)

type FolderService struct {
	db                     *sqlx.DB
	authService            *AuthService
	folderRepository       repository.FolderRepository
	fileRepository         repository.FileRepository
	blobDeletionRepository repository.BlobDeletionRepository
	purger                 *BlobPurger
}

func NewFolderService(
	database *sqlx.DB,
	authService *AuthService,
	folderRepository repository.FolderRepository,
	fileRepository repository.FileRepository,
	blobDeletionRepository repository.BlobDeletionRepository,
	purger *BlobPurger,
) *FolderService {
	return &FolderService{
		db:                     database,
		authService:            authService,
		folderRepository:       folderRepository,
		fileRepository:         fileRepository,
		blobDeletionRepository: blobDeletionRepository,
		purger:                 purger,
	}
}

type CreateFolderRequest struct {
	Credentials
	PropertyID int64  `json:"property_id"`
	FolderName string `json:"folder_name"`
}

func (r CreateFolderRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.FolderName, ozzo.By(folderNameRule)),
		)
	})
}

type RenameFolderRequest struct {
	Credentials
	PropertyID    int64  `json:"property_id"`
	FolderID      string `json:"folder_id"`
	NewFolderName string `json:"new_folder_name"`
}

func (r RenameFolderRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.FolderID, ozzo.Required),
			ozzo.Field(&r.NewFolderName, ozzo.By(folderNameRule)),
		)
	})
}

type DeleteFoldersRequest struct {
	Credentials
	PropertyID int64    `json:"property_id"`
	FolderIDs  []string `json:"folder_ids"`
}

func (r DeleteFoldersRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.FolderIDs, ozzo.Required, ozzo.Each(ozzo.Required)),
		)
	})
}

func folderNameRule(value any) error {
	name, _ := value.(string)
	return validation.ValidateFolderName(name)
}

// Create adds a folder whose id is derived from its name. Creating a folder
// that already exists is a no-op returning the stored folder.
func (s *FolderService) Create(ctx context.Context, req CreateFolderRequest) (*model.Folder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	folder := &model.Folder{
		ID:         validation.FolderID(req.FolderName),
		PropertyID: req.PropertyID,
		Name:       strings.TrimSpace(req.FolderName),
		CreatedAt:  time.Now().UTC(),
	}

	inserted, err := s.folderRepository.Create(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	if !inserted {
		slog.Debug("folder already exists", "property_id", folder.PropertyID, "folder_id", folder.ID)
		return s.folderRepository.ByID(ctx, folder.PropertyID, folder.ID)
	}

	slog.Info("folder created", "property_id", folder.PropertyID, "folder_id", folder.ID)
	return folder, nil
}

// Rename moves a folder to the id derived from its new name and repoints its
// files, in one transaction.
func (s *FolderService) Rename(ctx context.Context, req RenameFolderRequest) (*model.Folder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	newID := validation.FolderID(req.NewFolderName)
	newName := strings.TrimSpace(req.NewFolderName)

	if newID != req.FolderID {
		_, err := s.folderRepository.ByID(ctx, req.PropertyID, newID)
		if err == nil {
			return nil, ErrFolderConflict
		}
		if !errors.Is(err, repository.ErrFolderNotFound) {
			return nil, fmt.Errorf("failed to check folder: %w", err)
		}
	}

	var renamed *model.Folder
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		rows, err := s.folderRepository.WithTx(tx).Rename(ctx, req.PropertyID, req.FolderID, newID, newName)
		if errors.Is(err, repository.ErrFolderExists) {
			return ErrFolderConflict
		}
		if err != nil {
			return fmt.Errorf("failed to rename folder: %w", err)
		}
		if rows != 1 {
			return repository.ErrFolderNotFound
		}

		moved, err := s.fileRepository.WithTx(tx).RenameFolder(ctx, req.PropertyID, req.FolderID, newID, newName)
		if err != nil {
			return fmt.Errorf("failed to update files: %w", err)
		}

		slog.Info("folder renamed",
			"property_id", req.PropertyID,
			"from", req.FolderID,
			"to", newID,
			"files", moved,
		)

		renamed, err = s.folderRepository.WithTx(tx).ByID(ctx, req.PropertyID, newID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

type DeleteFoldersResult struct {
	Folders int64       `json:"folders"`
	Files   int64       `json:"files"`
	Blobs   PurgeReport `json:"blobs"`
}

// DeleteMany removes folders and every file inside them. Row deletion is
// all-or-nothing: if any requested folder is missing, nothing is deleted.
// Blob removal happens after commit and never fails the request.
func (s *FolderService) DeleteMany(ctx context.Context, req DeleteFoldersRequest) (*DeleteFoldersResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	folderIDs := uniqueIDs(req.FolderIDs)
	result := &DeleteFoldersResult{}
	var buckets blobBuckets

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		files := s.fileRepository.WithTx(tx)

		refs, err := files.BlobRefsInFolders(ctx, req.PropertyID, folderIDs)
		if err != nil {
			return fmt.Errorf("failed to list folder files: %w", err)
		}

		var skipped []int64
		buckets, skipped = bucketRefs(refs)
		if len(skipped) > 0 {
			slog.Warn("files without storage id", "property_id", req.PropertyID, "file_ids", skipped)
		}

		result.Files, err = files.DeleteInFolders(ctx, req.PropertyID, folderIDs)
		if err != nil {
			return fmt.Errorf("failed to delete folder files: %w", err)
		}

		result.Folders, err = s.folderRepository.WithTx(tx).DeleteMany(ctx, req.PropertyID, folderIDs)
		if err != nil {
			return fmt.Errorf("failed to delete folders: %w", err)
		}
		if result.Folders != int64(len(folderIDs)) {
			return ErrFoldersNotFound
		}

		return s.purger.record(ctx, s.blobDeletionRepository.WithTx(tx), buckets)
	})
	if err != nil {
		return nil, err
	}

	result.Blobs = s.purger.purge(ctx, buckets)

	slog.Info("folders deleted",
		"property_id", req.PropertyID,
		"folders", result.Folders,
		"files", result.Files,
		"blobs_deleted", result.Blobs.Deleted,
		"blobs_pending", result.Blobs.Pending,
	)

	return result, nil
}

// Folders lists a property's folders for an authorized caller.
func (s *FolderService) Folders(ctx context.Context, creds Credentials, propertyID int64) ([]*model.Folder, error) {
	if _, _, err := s.authService.Guard(ctx, creds, propertyID); err != nil {
		return nil, err
	}
	return s.folderRepository.Folders(ctx, propertyID)
}
