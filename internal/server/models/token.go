package models

import "time"

// Expiry policy. These are fixed and deliberately not configurable.
const (
	// PreAuthWindow bounds a freshly minted token, measured from Created.
	PreAuthWindow = 10 * time.Minute
	// SessionWindow is the sliding idle limit, measured from Updated.
	SessionWindow = 7 * 24 * time.Hour
	// RetentionHorizon is how long a token row is kept after its last use.
	// Nothing older can pass either window.
	RetentionHorizon = SessionWindow
)

// Token is a session handle row. ID changes on every successful validation;
// Created marks the start of the logical session and never changes.
type Token struct {
	ID      string
	UserID  string
	Created time.Time
	Updated time.Time
}

// Bound reports whether the token has been attached to a user.
func (t *Token) Bound() bool {
	return t.UserID != ""
}

// ExpiredSince reports whether ts+window lies strictly before now.
func ExpiredSince(ts time.Time, window time.Duration, now time.Time) bool {
	return ts.Add(window).Before(now)
}
