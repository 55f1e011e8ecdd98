// Package models defines server-side data models persisted in the database.
package models

import "time"

// NotDeleted is the reserved Deleted value of a live user. Any other value
// records when the user was soft-deleted.
var NotDeleted = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// User is an identity record upserted from OAuth claims.
type User struct {
	ID      string
	Email   string
	Sub     string
	Avatar  string
	Created time.Time
	Updated time.Time
	Deleted time.Time

	// SubscriptionActive is computed per request and never persisted.
	SubscriptionActive bool
}

// IsDeleted reports whether the user carries a deletion timestamp.
func (u *User) IsDeleted() bool {
	return !u.Deleted.Equal(NotDeleted)
}

// Claims are the identity attributes received from an OAuth provider.
type Claims struct {
	Email  string `validate:"required,email"`
	Sub    string `validate:"required"`
	Avatar string `validate:"omitempty,url"`
}
