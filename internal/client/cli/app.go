// Package cli implements the sessionkeeper command-line client: one command
// per invocation, printing the rotated token so it can be fed to the next.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
)

var ErrUsage = errors.New("usage: sessionkeeper-cli [-a addr] [-t token] (auth | create-user <email> <sub> [avatar])")

type App struct {
	config *config.Config
	client client.Client
	out    io.Writer
}

func NewApp(cfg *config.Config, out io.Writer) (*App, error) {
	c, err := client.NewUsersClient(cfg.ServerEndpointAddr, cfg.Token)
	if err != nil {
		return nil, err
	}
	return &App{config: cfg, client: c, out: out}, nil
}

// Run executes a single command and closes the connection.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	if len(args) == 0 {
		return ErrUsage
	}

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	switch args[0] {
	case "auth":
		return a.auth(ctx)
	case "create-user":
		return a.createUser(ctx, args[1:])
	default:
		return ErrUsage
	}
}

func (a *App) auth(ctx context.Context) error {
	u, err := a.client.Auth(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:           %s\n", u.ID)
	fmt.Fprintf(a.out, "email:        %s\n", u.Email)
	fmt.Fprintf(a.out, "sub:          %s\n", u.Sub)
	if u.Avatar != "" {
		fmt.Fprintf(a.out, "avatar:       %s\n", u.Avatar)
	}
	fmt.Fprintf(a.out, "subscription: %t\n", u.SubscriptionActive)
	fmt.Fprintf(a.out, "token:        %s\n", a.client.Token())
	return nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	avatar := ""
	if len(args) == 3 {
		avatar = args[2]
	}

	if err := a.client.CreateUser(ctx, args[0], args[1], avatar); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "token: %s\n", a.client.Token())
	return nil
}
