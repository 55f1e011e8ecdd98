// Package web serves the browser-facing HTTP surface: the liveness probe,
// the OAuth login redirect and callback, and the metrics endpoint.
package web

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Login is the OAuth handshake driven by the HTTP handlers.
type Login interface {
	Login(ctx context.Context, provider string) (string, error)
	Callback(ctx context.Context, provider, code, state string) (string, error)
}

type Options struct {
	AllowedOrigins []string
	// LoginRPS and LoginBurst bound the OAuth endpoints across all clients.
	// LoginRPS <= 0 means unlimited. LoginBurst is raised to at least 1.
	LoginRPS   float64
	LoginBurst int
	// ClientRedirectURL receives the bound token as ?token=. When empty the
	// callback answers with JSON instead.
	ClientRedirectURL string
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type handlers struct {
	login             Login
	log               logging.Logger
	clientRedirectURL string
}

func NewRouter(login Login, log logging.Logger, opts Options) http.Handler {
	h := &handlers{
		login:             login,
		log:               log.With("module", "http_server"),
		clientRedirectURL: opts.ClientRedirectURL,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/", h.root)

	limit := rate.Inf
	if opts.LoginRPS > 0 {
		limit = rate.Limit(opts.LoginRPS)
	}

	burst := max(opts.LoginBurst, 1)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(rate.NewLimiter(limit, burst), h.log))
		r.Get("/oauth-login/{provider}", h.oauthLogin)
		r.Get("/oauth-callback/{provider}", h.oauthCallback)
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func rateLimit(limiter *rate.Limiter, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn(r.Context(), "too many requests", "path", r.URL.Path)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
