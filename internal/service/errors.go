package service

import (
	"errors"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/repository"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("not approved for this property type")
	ErrFolderConflict     = errors.New("a folder with that name already exists")
	ErrFilesNotFound      = errors.New("one or more files were not found for this property")
	ErrFoldersNotFound    = errors.New("one or more folders were not found for this property")
	ErrCategoryExists     = errors.New("category already exists")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrStorage            = errors.New("file storage failed")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// IsNotFound reports whether err means a requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrPropertyNotFound) ||
		errors.Is(err, repository.ErrFolderNotFound) ||
		errors.Is(err, repository.ErrFileNotFound) ||
		errors.Is(err, repository.ErrDetailNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, ErrFilesNotFound) ||
		errors.Is(err, ErrFoldersNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

// IsConflict reports whether err means the request collides with existing
// state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrFolderConflict) ||
		errors.Is(err, ErrCategoryExists) ||
		errors.Is(err, repository.ErrDuplicateUsername)
}
