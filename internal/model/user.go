package model

import (
	"time"
)

type User struct {
	ID               int64     `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	ForeignApproved  bool      `db:"foreign_approved" json:"foreign_approved"`
	DomesticApproved bool      `db:"domestic_approved" json:"domestic_approved"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CanAccess reports whether the user's approvals cover the property's kind.
func (u *User) CanAccess(p *Property) bool {
	if p.IsForeign {
		return u.ForeignApproved
	}
	return u.DomesticApproved
}
