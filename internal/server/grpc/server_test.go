package grpc

import (
	"context"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	pb "github.com/dmitrijs2005/sessionkeeper/internal/proto"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/billing"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/reclaim"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, &fakeSessions{}, auth.NewTokenCodec([]byte("k")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, &fakeSessions{}, auth.NewTokenCodec([]byte("k")))
	assert.Error(t, srv.Run(context.Background()))
}

// --- end to end over an in-memory listener ---

type stubProvider struct{ claims models.Claims }

func (p stubProvider) AuthURL(state string) string {
	return "https://accounts.example.com/o/auth?state=" + url.QueryEscape(state)
}

func (p stubProvider) Exchange(context.Context, string) (models.Claims, error) {
	return p.claims, nil
}

type stack struct {
	client pb.UsersServiceClient
	coord  *oauth.Coordinator
	rm     *repomanager.MemoryRepositoryManager
}

func newStack(t *testing.T) *stack {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	m := metrics.New(nil)
	log := nopLogger{}
	codec := auth.NewTokenCodec([]byte("e2e-secret"))

	gate := subscription.NewGate(billing.Static{Active: true}, false, log, m)
	rec := reclaim.New(dbx.NopPool{}, rm, log, m, 0, time.Second)
	svc := services.NewSessionService(dbx.NopPool{}, rm, gate, rec, log, m)
	coord := oauth.NewCoordinator(map[string]oauth.Provider{
		"google": stubProvider{claims: models.Claims{Email: "ann@example.com", Sub: "google|7", Avatar: "https://img.example.com/a.png"}},
	}, svc, codec, log)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewGRPCServer("bufconn", log, svc, codec).Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	return &stack{client: pb.NewUsersServiceClient(conn), coord: coord, rm: rm}
}

func bearer(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.TokenHeaderName, common.TokenScheme+token)
}

func TestEndToEnd_LoginCallbackAuthReplay(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	redirect, err := s.coord.Login(ctx, "google")
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, 1, s.rm.TokenStore.Len())

	t1, err := s.coord.Callback(ctx, "google", "code", state)
	require.NoError(t, err)
	assert.Equal(t, 1, s.rm.UserStore.Count())

	out, err := s.client.Auth(bearer(t1), &emptypb.Empty{})
	require.NoError(t, err)
	res, err := pb.AuthResponseFromStruct(out)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.True(t, res.User.SubscriptionActive)
	assert.NotEqual(t, t1, res.Token)

	_, err = s.client.Auth(bearer(t1), &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.client.Auth(bearer(res.Token), &emptypb.Empty{})
	assert.NoError(t, err)
}

func TestEndToEnd_CreateUserOverRPC(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	redirect, err := s.coord.Login(ctx, "google")
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	t0 := u.Query().Get("state")

	req := pb.CreateUserRequest{Email: "bob@example.com", Sub: "google|8"}.ToStruct()
	out, err := s.client.CreateUser(bearer(t0), req)
	require.NoError(t, err)

	_, err = s.client.Auth(bearer(out.GetValue()), &emptypb.Empty{})
	require.NoError(t, err)

	// the minted token is spent
	_, err = s.client.CreateUser(bearer(t0), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.client.CreateUser(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
