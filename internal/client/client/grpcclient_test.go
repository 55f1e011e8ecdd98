package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

/*************
 * Fake server
 *************/

type fakeServer struct {
	pb.UnimplementedUsersServiceServer

	mu        sync.Mutex
	seenAuth  []string
	lastEmail string

	next    string
	err     error
	badAuth bool
}

func (f *fakeServer) record(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	f.mu.Lock()
	f.seenAuth = append(f.seenAuth, md.Get("authorization")...)
	f.mu.Unlock()
}

func (f *fakeServer) CreateUser(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	f.record(ctx)
	if f.err != nil {
		return nil, f.err
	}
	in, err := pb.CreateUserRequestFromStruct(req)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastEmail = in.Email
	f.mu.Unlock()
	return wrapperspb.String(f.next), nil
}

func (f *fakeServer) Auth(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	f.record(ctx)
	if f.err != nil {
		return nil, f.err
	}
	if f.badAuth {
		return &structpb.Struct{Fields: map[string]*structpb.Value{"id": structpb.NewNumberValue(1)}}, nil
	}
	return pb.AuthResponse{User: pb.User{ID: "u1", Email: "ann@example.com"}, Token: f.next}.ToStruct(), nil
}

func newTestClient(t *testing.T, srv *fakeServer, token string) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	pb.RegisterUsersServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	c, err := NewUsersClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		gs.Stop()
	})
	return c
}

func TestCreateUser_SendsBearerAndAdoptsRotatedToken(t *testing.T) {
	srv := &fakeServer{next: "t1"}
	c := newTestClient(t, srv, "t0")

	require.NoError(t, c.CreateUser(context.Background(), "ann@example.com", "google|7", ""))

	assert.Equal(t, "t1", c.Token())
	assert.Equal(t, []string{"Bearer t0"}, srv.seenAuth)
	assert.Equal(t, "ann@example.com", srv.lastEmail)
}

func TestAuth_ChainsTokens(t *testing.T) {
	srv := &fakeServer{next: "t2"}
	c := newTestClient(t, srv, "t1")

	u, err := c.Auth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "t2", c.Token())

	srv.next = "t3"
	_, err = c.Auth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer t1", "Bearer t2"}, srv.seenAuth)
	assert.Equal(t, "t3", c.Token())
}

func TestNoTokenSendsNoHeader(t *testing.T) {
	srv := &fakeServer{err: status.Error(codes.Unauthenticated, "unauthenticated")}
	c := newTestClient(t, srv, "")

	_, err := c.Auth(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, srv.seenAuth)
}

func TestFailureKeepsToken(t *testing.T) {
	srv := &fakeServer{err: status.Error(codes.Unauthenticated, "unauthenticated")}
	c := newTestClient(t, srv, "t0")

	err := c.CreateUser(context.Background(), "a@b.c", "s", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "t0", c.Token())
}

func TestMalformedReplies(t *testing.T) {
	t.Run("empty create token", func(t *testing.T) {
		c := newTestClient(t, &fakeServer{}, "t0")
		assert.ErrorIs(t, c.CreateUser(context.Background(), "a@b.c", "s", ""), ErrMalformedReply)
		assert.Equal(t, "t0", c.Token())
	})
	t.Run("wrong field kind", func(t *testing.T) {
		c := newTestClient(t, &fakeServer{badAuth: true}, "t0")
		_, err := c.Auth(context.Background())
		assert.ErrorIs(t, err, ErrMalformedReply)
	})
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	tests := []struct {
		in   error
		want error
	}{
		{status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{status.Error(codes.PermissionDenied, "x"), ErrUnauthorized},
		{status.Error(codes.InvalidArgument, "x"), ErrInvalidArgument},
		{status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, c.mapError(tt.in), tt.want)
	}

	assert.NoError(t, c.mapError(nil))

	internal := c.mapError(status.Error(codes.Internal, "boom"))
	assert.ErrorContains(t, internal, "rpc error")
	assert.False(t, errors.Is(internal, ErrUnauthorized))
}

func TestWithToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer old", "x-trace", "1")
	ctx = withToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Bearer new"}, md.Get("authorization"))
	assert.Equal(t, []string{"1"}, md.Get("x-trace"))
}
