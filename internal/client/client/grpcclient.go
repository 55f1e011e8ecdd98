package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.UsersServiceClient

	mu    sync.Mutex
	token string
}

func withToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.TokenHeaderName, common.TokenScheme+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.Token(); token != "" {
		ctx = withToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewUsersClient dials endpointURL lazily. token may be empty for the very
// first call, which then fails with ErrUnauthorized.
func NewUsersClient(endpointURL, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, token: token}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.tokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewUsersServiceClient(conn)
	return c, nil
}

// Token returns the most recent boundary token.
func (s *GRPCClient) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// CreateUser binds the current pre-auth token to the given identity.
func (s *GRPCClient) CreateUser(ctx context.Context, email, sub, avatar string) error {
	req := pb.CreateUserRequest{Email: email, Sub: sub, Avatar: avatar}

	resp, err := s.client.CreateUser(ctx, req.ToStruct())
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetValue() == "" {
		return ErrMalformedReply
	}

	s.setToken(resp.GetValue())
	return nil
}

// Auth returns the profile behind the current token.
func (s *GRPCClient) Auth(ctx context.Context) (*pb.User, error) {
	resp, err := s.client.Auth(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}

	ar, err := pb.AuthResponseFromStruct(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if ar.Token == "" {
		return nil, ErrMalformedReply
	}

	s.setToken(ar.Token)
	return &ar.User, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.InvalidArgument:
		return ErrInvalidArgument
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
