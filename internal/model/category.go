package model

import (
	"time"
)

// CategoryDetail is a vendor record (site, credentials) filed under one of a
// property's categories.
type CategoryDetail struct {
	ID                int64     `db:"id" json:"id"`
	PropertyID        int64     `db:"property_id" json:"property_id"`
	CategoryName      string    `db:"category_name" json:"category_name"`
	DetailName        string    `db:"detail_name" json:"detail_name"`
	DetailURL         string    `db:"detail_url" json:"detail_url"`
	DetailDescription *string   `db:"detail_description" json:"detail_description,omitempty"`
	DetailLogoURL     *string   `db:"detail_logo_url" json:"detail_logo_url,omitempty"`
	DetailUsername    *string   `db:"detail_username" json:"detail_username,omitempty"`
	DetailPassword    *string   `db:"detail_password" json:"detail_password,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
