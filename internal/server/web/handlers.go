package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, OK("Hello, World!"))
}

func (h *handlers) oauthLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	redirect, err := h.login.Login(r.Context(), provider)
	if err != nil {
		h.fail(w, r, "oauth login", err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *handlers) oauthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.log.Warn(r.Context(), "provider refused authorization", "provider", provider, "error", e)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error("authorization denied"))
		return
	}

	token, err := h.login.Callback(r.Context(), provider, q.Get("code"), q.Get("state"))
	if err != nil {
		h.fail(w, r, "oauth callback", err)
		return
	}

	if h.clientRedirectURL == "" {
		render.JSON(w, r, OK(map[string]string{"token": token}))
		return
	}

	target, err := url.Parse(h.clientRedirectURL)
	if err != nil {
		h.fail(w, r, "oauth callback", err)
		return
	}
	tq := target.Query()
	tq.Set("token", token)
	target.RawQuery = tq.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// fail logs the cause and answers with a status that reveals no more than
// the error class.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		code int
		msg  string
	)
	switch {
	case common.IsAuthFailure(err):
		code, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, common.ErrUnknownProvider):
		code, msg = http.StatusNotFound, "unknown provider"
	case errors.Is(err, common.ErrorInvalidArgument):
		code, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrorExternal):
		code, msg = http.StatusBadGateway, "identity provider error"
	default:
		code, msg = http.StatusInternalServerError, "internal error"
	}

	h.log.Warn(r.Context(), op+" failed",
		"status", code,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)

	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}
