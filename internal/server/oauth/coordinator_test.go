package oauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/billing"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/reclaim"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger         { return n }

type fakeProvider struct {
	claims models.Claims
	err    error
	codes  []string
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (models.Claims, error) {
	p.codes = append(p.codes, code)
	return p.claims, p.err
}

type fixture struct {
	coord    *Coordinator
	provider *fakeProvider
	codec    *auth.TokenCodec
	rm       *repomanager.MemoryRepositoryManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	m := metrics.New(nil)
	log := nopLogger{}

	gate := subscription.NewGate(billing.Static{}, false, log, m)
	rec := reclaim.New(dbx.NopPool{}, rm, log, m, 0, time.Second)
	svc := services.NewSessionService(dbx.NopPool{}, rm, gate, rec, log, m)

	p := &fakeProvider{claims: models.Claims{Email: "ann@example.com", Sub: "g-1"}}
	codec := auth.NewTokenCodec([]byte("test-secret"))

	return &fixture{
		coord:    NewCoordinator(map[string]Provider{"google": p}, svc, codec, log),
		provider: p,
		codec:    codec,
		rm:       rm,
	}
}

func stateFrom(t *testing.T, redirect string) string {
	t.Helper()
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestLogin_MintsCorrelationToken(t *testing.T) {
	f := newFixture(t)

	redirect, err := f.coord.Login(context.Background(), "google")
	require.NoError(t, err)

	id, err := f.codec.Decode(stateFrom(t, redirect))
	require.NoError(t, err)

	tok, err := f.rm.TokenStore.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, tok.Bound())
}

func TestLogin_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Login(context.Background(), "myspace")
	assert.ErrorIs(t, err, common.ErrUnknownProvider)
	assert.Equal(t, 0, f.rm.TokenStore.Len())
}

func TestCallback_BindsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redirect, err := f.coord.Login(ctx, "google")
	require.NoError(t, err)
	state := stateFrom(t, redirect)
	t0, err := f.codec.Decode(state)
	require.NoError(t, err)

	encoded, err := f.coord.Callback(ctx, "google", "the-code", state)
	require.NoError(t, err)
	assert.Equal(t, []string{"the-code"}, f.provider.codes)

	t1, err := f.codec.Decode(encoded)
	require.NoError(t, err)
	assert.NotEqual(t, t0, t1)

	tok, err := f.rm.TokenStore.Lookup(ctx, t1)
	require.NoError(t, err)
	assert.True(t, tok.Bound())
	assert.Equal(t, 1, f.rm.UserStore.Count())

	// replaying the callback cannot reuse the spent state
	_, err = f.coord.Callback(ctx, "google", "the-code", state)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCallback_ProviderFailureIsExternal(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("invalid_grant")

	redirect, err := f.coord.Login(context.Background(), "google")
	require.NoError(t, err)

	_, err = f.coord.Callback(context.Background(), "google", "code", stateFrom(t, redirect))
	require.ErrorIs(t, err, common.ErrorExternal)
	assert.False(t, common.IsAuthFailure(err))
}

func TestCallback_BadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Callback(context.Background(), "google", "code", "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.coord.Callback(context.Background(), "google", "", "garbage")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = f.coord.Callback(context.Background(), "nope", "code", "garbage")
	assert.ErrorIs(t, err, common.ErrUnknownProvider)

	assert.Empty(t, f.provider.codes)
}
