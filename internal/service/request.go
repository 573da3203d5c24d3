package service

import (
	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// Credentials identify the caller of a mutating operation. A verified
// session token stands in for username and password.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"-"`
}

func (c Credentials) Validate() error {
	if c.Token != "" {
		return nil
	}
	return ozzo.ValidateStruct(&c,
		ozzo.Field(&c.Username, ozzo.Required),
		ozzo.Field(&c.Password, ozzo.Required),
	)
}

// validate runs the credential check followed by the request's own rules and
// wraps any failure as ErrValidation.
func validate(creds Credentials, rules func() error) error {
	if err := creds.Validate(); err != nil {
		return validationError(err)
	}
	if err := rules(); err != nil {
		return validationError(err)
	}
	return nil
}

func uniqueIDs[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
