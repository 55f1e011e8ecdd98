// Package users declares the User Directory: upsert and lookup of identity
// records with soft-delete semantics. It never touches tokens.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Upsert creates a user when nothing matches claims.Sub or claims.Email,
	// otherwise refreshes the mutable attributes of the matching record.
	// A sub match wins over an email match. When the email belongs to a
	// different user than the sub, the sub's record keeps its own email.
	Upsert(ctx context.Context, claims models.Claims, now time.Time) (*models.User, error)

	// FindByID returns the user or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
}

var newID = func() string {
	return uuid.NewString()
}

// merge applies claims to u and reports whether anything changed. emailTaken
// means another record already owns claims.Email.
func merge(u *models.User, c models.Claims, emailTaken bool, now time.Time) bool {
	email := c.Email
	if emailTaken {
		email = u.Email
	}
	if u.Email == email && u.Sub == c.Sub && u.Avatar == c.Avatar {
		return false
	}
	u.Email, u.Sub, u.Avatar, u.Updated = email, c.Sub, c.Avatar, now
	return true
}
