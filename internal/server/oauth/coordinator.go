package oauth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Sessions is the part of the session service the login flow needs.
type Sessions interface {
	Mint(ctx context.Context) (string, error)
	CreateUser(ctx context.Context, tokenID string, claims models.Claims) (string, error)
}

// Codec converts token ids to and from their boundary form.
type Codec interface {
	Encode(tokenID string) (string, error)
	Decode(s string) (string, error)
}

type Coordinator struct {
	providers map[string]Provider
	sessions  Sessions
	codec     Codec
	log       logging.Logger
}

func NewCoordinator(providers map[string]Provider, sessions Sessions, codec Codec, log logging.Logger) *Coordinator {
	return &Coordinator{
		providers: providers,
		sessions:  sessions,
		codec:     codec,
		log:       log.With("module", "oauth"),
	}
}

func (c *Coordinator) provider(name string) (Provider, error) {
	p, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownProvider, name)
	}
	return p, nil
}

// Login mints an unbound token and returns the provider URL to redirect the
// browser to. The encoded token travels as the OAuth state parameter.
func (c *Coordinator) Login(ctx context.Context, provider string) (string, error) {
	p, err := c.provider(provider)
	if err != nil {
		return "", err
	}

	tokenID, err := c.sessions.Mint(ctx)
	if err != nil {
		return "", err
	}

	state, err := c.codec.Encode(tokenID)
	if err != nil {
		return "", err
	}

	c.log.Debug(ctx, "login started", "provider", provider)
	return p.AuthURL(state), nil
}

// Callback finishes the handshake and returns the encoded bound token.
// Provider failures are reported as common.ErrorExternal.
func (c *Coordinator) Callback(ctx context.Context, provider, code, state string) (string, error) {
	p, err := c.provider(provider)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", fmt.Errorf("%w: missing code", common.ErrorInvalidArgument)
	}

	tokenID, err := c.codec.Decode(state)
	if err != nil {
		return "", err
	}

	claims, err := p.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", provider, common.ErrorExternal, err)
	}

	bound, err := c.sessions.CreateUser(ctx, tokenID, claims)
	if err != nil {
		return "", err
	}

	c.log.Info(ctx, "login completed", "provider", provider)
	return c.codec.Encode(bound)
}
