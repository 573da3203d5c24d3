package model

import (
	"time"
)

type Folder struct {
	ID         string    `db:"id" json:"id"` // slug derived from the name, unique per property
	PropertyID int64     `db:"property_id" json:"property_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
