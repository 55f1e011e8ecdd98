// Package common contains shared constants and sentinel errors used across
// sessionkeeper components.
package common

// TokenHeaderName is the gRPC metadata key that carries the session token.
const TokenHeaderName = "authorization"

// TokenScheme prefixes the token value inside TokenHeaderName.
const TokenScheme = "Bearer "
