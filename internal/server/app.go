// Package server wires the session core together and runs the gRPC server,
// the HTTP server and the reclamation worker until a signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/billing"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/reclaim"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/subscription"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	grpcServer *gs.GRPCServer
	httpServer *web.HTTPServer
	reclaimer  *reclaim.Reclaimer
	closers    []func() error
}

// NewApp builds every component from c. On error, whatever was already
// opened is closed again.
func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	defer func() {
		if err != nil {
			_ = app.close()
		}
	}()

	pool, rm, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	bc, err := app.initBilling(ctx)
	if err != nil {
		return nil, err
	}

	gate := subscription.NewGate(bc, c.BillingFailOpen, logger, m)
	app.reclaimer = reclaim.New(pool, rm, logger, m, c.ReclaimInterval, c.ReclaimTimeout)
	sessions := services.NewSessionService(pool, rm, gate, app.reclaimer, logger, m)
	codec := auth.NewTokenCodec([]byte(c.SecretKey))

	providers, err := app.initProviders(ctx)
	if err != nil {
		return nil, err
	}
	coordinator := oauth.NewCoordinator(providers, sessions, codec, logger)

	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, sessions, codec)
	app.httpServer = web.NewHTTPServer(c.EndpointAddrHTTP, web.NewRouter(coordinator, logger, web.Options{
		AllowedOrigins:    c.CORSAllowedOrigins,
		LoginRPS:          c.LoginRateLimit,
		LoginBurst:        c.LoginRateBurst,
		ClientRedirectURL: c.ClientRedirectURL,
		Gatherer:          registry,
	}), logger)

	return app, nil
}

func (app *App) initStorage(ctx context.Context) (dbx.Pool, repomanager.RepositoryManager, error) {
	switch app.config.Storage {
	case "memory":
		app.logger.Warn(ctx, "using in-memory storage, sessions will not survive a restart")
		return dbx.NopPool{}, repomanager.NewMemoryRepositoryManager(), nil

	case "postgres", "":
		pcfg, err := pgxpool.ParseConfig(app.config.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db config error: %w", err)
		}
		if app.config.DatabaseMaxConns > 0 {
			pcfg.MaxConns = app.config.DatabaseMaxConns
		}

		pgPool, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, func() error { pgPool.Close(); return nil })

		db := stdlib.OpenDBFromPool(pgPool)
		app.closers = append(app.closers, db.Close)

		if err := db.PingContext(ctx); err != nil {
			return nil, nil, fmt.Errorf("db ping error: %w", err)
		}

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}

		return dbx.SQLPool{DB: db}, rm, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", app.config.Storage)
	}
}

func (app *App) initBilling(ctx context.Context) (billing.Client, error) {
	c := app.config

	if c.BillingBaseURL == "" {
		app.logger.Warn(ctx, "no billing endpoint configured, every user is reported unsubscribed")
		return billing.Static{}, nil
	}

	var client billing.Client = billing.NewHTTPClient(c.BillingBaseURL, c.BillingAPIKey, c.BillingTimeout)

	if c.RedisAddr != "" {
		rdb, err := billing.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
		client = billing.NewCachedClient(client, rdb, c.SubscriptionCacheTTL, app.logger)
	}

	return client, nil
}

func (app *App) initProviders(ctx context.Context) (map[string]oauth.Provider, error) {
	c := app.config
	providers := make(map[string]oauth.Provider)

	if c.GoogleClientID == "" {
		app.logger.Warn(ctx, "google client id not set, google login disabled")
		return providers, nil
	}

	redirect := strings.TrimRight(c.OAuthRedirectBaseURL, "/") + "/oauth-callback/google"
	google, err := oauth.NewOIDCProvider(ctx, c.GoogleIssuer, c.GoogleClientID, c.GoogleClientSecret, redirect)
	if err != nil {
		return nil, fmt.Errorf("google provider init error: %w", err)
	}
	providers["google"] = google

	return providers, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpcServer.Run(ctx) })
	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.reclaimer.Run(ctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(context.Background(), "app stopped with error", "error", err)
	}

	if cerr := app.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
