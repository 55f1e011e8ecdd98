// Package tokens declares the Token Store: persistence and atomic state
// transitions for session tokens.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
)

// Repository defines the token operations. Time is always supplied by the
// caller so expiry policy stays in one place.
type Repository interface {
	// Mint creates an unbound token with created = updated = now.
	Mint(ctx context.Context, now time.Time) (string, error)

	// Lookup returns the token with the given id or common.ErrorNotFound.
	// A rotated-away id is indistinguishable from one that never existed.
	Lookup(ctx context.Context, id string) (*models.Token, error)

	// Rotate atomically replaces oldID with a fresh id bound to userID and
	// sets updated = now. It fails with common.ErrTokenConflict when oldID
	// no longer exists.
	Rotate(ctx context.Context, oldID string, userID string, now time.Time) (string, error)

	// DeleteStale removes tokens last updated before the given instant and
	// returns how many rows went away.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// NewID returns a fresh random token id.
var NewID = func() string {
	return uuid.NewString()
}
