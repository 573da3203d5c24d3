package validation

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

const MaxCategoryNameLength = 100

// CategoryKey is the comparison key for category names. Two names with the
// same key are the same category.
func CategoryKey(name string) string {
	// A Caser carries state and is built per call.
	return cases.Fold().String(strings.TrimSpace(name))
}

// IndexCategory returns the position of name in categories, compared
// case-insensitively, or -1.
func IndexCategory(categories []string, name string) int {
	key := CategoryKey(name)
	for i, c := range categories {
		if CategoryKey(c) == key {
			return i
		}
	}
	return -1
}

func ValidateCategoryName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("category name is required")
	}

	if len(trimmed) > MaxCategoryNameLength {
		return errors.New("category name is too long (max 100 characters)")
	}

	return nil
}
