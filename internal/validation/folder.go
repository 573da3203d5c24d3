package validation

import (
	"errors"
	"strings"
)

const MaxFolderNameLength = 255

// FolderID derives a folder's id from its display name: trimmed, lowercased,
// with every run of Unicode whitespace collapsed to a single hyphen.
func FolderID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// ValidateFolderName checks a display name before an id is derived from it.
func ValidateFolderName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("folder name is required")
	}

	if len(trimmed) > MaxFolderNameLength {
		return errors.New("folder name is too long (max 255 characters)")
	}

	return nil
}
