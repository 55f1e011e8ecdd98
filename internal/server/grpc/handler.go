package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toStatus collapses internal errors to the two signals clients may see.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case common.IsAuthFailure(err):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, "invalid argument")
	default:
		s.logger.Error(ctx, method+" failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	tokenID, ok := tokenIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	in, err := pb.CreateUserRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid argument")
	}

	newID, err := s.sessions.CreateUser(ctx, tokenID, models.Claims{
		Email:  in.Email,
		Sub:    in.Sub,
		Avatar: in.Avatar,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "CreateUser", err)
	}

	encoded, err := s.codec.Encode(newID)
	if err != nil {
		return nil, s.toStatus(ctx, "CreateUser", err)
	}
	return wrapperspb.String(encoded), nil
}

func (s *GRPCServer) Auth(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tokenID, ok := tokenIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	res, err := s.sessions.Auth(ctx, tokenID)
	if err != nil {
		return nil, s.toStatus(ctx, "Auth", err)
	}

	encoded, err := s.codec.Encode(res.Token)
	if err != nil {
		return nil, s.toStatus(ctx, "Auth", err)
	}

	u := res.User
	return pb.AuthResponse{
		User: pb.User{
			ID:                 u.ID,
			Email:              u.Email,
			Sub:                u.Sub,
			Avatar:             u.Avatar,
			Created:            u.Created,
			Updated:            u.Updated,
			Deleted:            u.Deleted,
			SubscriptionActive: u.SubscriptionActive,
		},
		Token: encoded,
	}.ToStruct(), nil
}
