package client

import (
	"context"

	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
)

type Client interface {
	Close() error
	Token() string
	CreateUser(ctx context.Context, email, sub, avatar string) error
	Auth(ctx context.Context) (*pb.User, error)
}
