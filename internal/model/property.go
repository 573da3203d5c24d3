package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Property struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	ImageURL    string     `db:"image_url" json:"image_url"`
	Description string     `db:"description" json:"description"`
	Categories  Categories `db:"categories" json:"categories"`
	IsForeign   bool       `db:"is_foreign" json:"is_foreign"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Categories is the ordered category list of a property, stored as a JSON
// array in a text column.
type Categories []string

func (c Categories) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Categories) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Categories{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("categories: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*c = out
	return nil
}
