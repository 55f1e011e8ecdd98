// Package grpc exposes the session core as the UsersService gRPC API.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"google.golang.org/grpc"
)

// Sessions is the session lifecycle API the handlers call into.
type Sessions interface {
	CreateUser(ctx context.Context, tokenID string, claims models.Claims) (string, error)
	Auth(ctx context.Context, tokenID string) (*services.AuthResult, error)
}

// Codec converts token ids to and from their boundary form.
type Codec interface {
	Encode(tokenID string) (string, error)
	Decode(s string) (string, error)
}

type GRPCServer struct {
	pb.UnimplementedUsersServiceServer
	address  string
	sessions Sessions
	codec    Codec
	logger   logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, sessions Sessions, codec Codec) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		codec:    codec,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.tokenInterceptor))
	pb.RegisterUsersServiceServer(srv, s)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	err := srv.Serve(lis)
	if ctx.Err() != nil {
		<-stopped
	}
	return err
}
