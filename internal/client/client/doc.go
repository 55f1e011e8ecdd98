// Package client talks to the sessionkeeper gRPC endpoint.
//
// GRPCClient attaches the current boundary token to every call and adopts
// the rotated token the server returns, so a caller only has to persist
// Token() after each successful call. Status codes are mapped onto the
// sentinel errors ErrUnauthorized, ErrInvalidArgument and ErrUnavailable.
package client
