// Package auth wraps opaque session token ids in a signed, versioned
// envelope for transport across service boundaries.
package auth

import (
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// FormatVersion is the current envelope format.
const FormatVersion = 1

// Claims carries the token id in the standard jti claim plus a format version.
type Claims struct {
	jwt.RegisteredClaims
	Version int `json:"v"`
}

// TokenCodec signs and verifies envelopes with an HMAC key. The envelope
// carries no expiry: validity is decided by the token store.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

func (c *TokenCodec) Encode(tokenID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: tokenID},
		Version:          FormatVersion,
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies the envelope and returns the token id inside it. Any
// failure is reported as common.ErrInvalidToken.
func (c *TokenCodec) Decode(s string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(s, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}
	if claims.Version != FormatVersion {
		return "", fmt.Errorf("%w: unsupported version %d", common.ErrInvalidToken, claims.Version)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	return claims.ID, nil
}
