package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const tokenIDKey ctxKey = "tokenID"

// tokenIDFromContext returns the token id placed by tokenInterceptor.
func tokenIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tokenIDKey).(string)
	return id, ok && id != ""
}

// bearerToken extracts the raw token from call metadata.
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.TokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	v := values[0]
	if len(v) >= len(common.TokenScheme) && strings.EqualFold(v[:len(common.TokenScheme)], common.TokenScheme) {
		v = v[len(common.TokenScheme):]
	}
	return strings.TrimSpace(v)
}

// tokenInterceptor requires a decodable session token on every
// UsersService call and stores the token id in the context.
func (s *GRPCServer) tokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !strings.HasPrefix(info.FullMethod, "/"+pb.UsersService_ServiceName+"/") {
		return handler(ctx, req)
	}

	raw := bearerToken(ctx)
	if raw == "" {
		s.logger.Warn(ctx, "missing token", "method", info.FullMethod)
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	tokenID, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Warn(ctx, "undecodable token", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	return handler(context.WithValue(ctx, tokenIDKey, tokenID), req)
}
