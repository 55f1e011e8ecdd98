// Package services contains the server-side business logic. SessionService
// owns the token lifecycle: minting, pre-auth binding and rotation on every
// authenticated call.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// SubscriptionChecker annotates a user with its subscription state.
type SubscriptionChecker interface {
	Check(ctx context.Context, u *models.User) (bool, error)
}

// Reclaimer schedules stale-token cleanup without waiting for it.
type Reclaimer interface {
	Trigger()
}

// AuthResult is what a successful authenticated-session validation yields.
type AuthResult struct {
	User  *models.User
	Token string
}

type SessionService struct {
	pool        dbx.Pool
	repomanager repomanager.RepositoryManager
	gate        SubscriptionChecker
	reclaimer   Reclaimer
	validate    *validator.Validate
	log         logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewSessionService(pool dbx.Pool, rm repomanager.RepositoryManager, gate SubscriptionChecker,
	reclaimer Reclaimer, log logging.Logger, m *metrics.Metrics) *SessionService {
	return &SessionService{
		pool:        pool,
		repomanager: rm,
		gate:        gate,
		reclaimer:   reclaimer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		log:         log.With("module", "session"),
		metrics:     m,
		now:         time.Now,
	}
}

func (s *SessionService) acquire(ctx context.Context) (dbx.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w: %w", common.ErrorUnavailable, err)
	}
	return conn, nil
}

// storeErr keeps token-layer sentinels intact and marks everything else as
// a store outage.
func storeErr(op string, err error) error {
	if common.IsAuthFailure(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrorUnavailable, err)
}

// Mint creates an unbound token used to correlate a login round trip.
func (s *SessionService) Mint(ctx context.Context) (string, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	id, err := s.repomanager.Tokens(conn).Mint(ctx, s.now())
	if err != nil {
		return "", storeErr("mint token", err)
	}

	s.metrics.Minted.Inc()
	s.reclaimer.Trigger()
	return id, nil
}

// CreateUser completes identity binding. The token must be at most
// models.PreAuthWindow old. The user is upserted from claims and the token
// is rotated to a fresh id bound to that user; the old id dies.
func (s *SessionService) CreateUser(ctx context.Context, tokenID string, claims models.Claims) (string, error) {
	start := time.Now()

	newID, err := s.createUser(ctx, tokenID, claims)
	s.record(ctx, metrics.PathPreAuth, "CreateUser", err)
	if err != nil {
		return "", err
	}

	s.reclaimer.Trigger()
	s.log.Info(ctx, "CreateUser", "elapsed", time.Since(start))
	return newID, nil
}

func (s *SessionService) createUser(ctx context.Context, tokenID string, claims models.Claims) (string, error) {
	if err := s.validate.Struct(claims); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorInvalidArgument, err)
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	tokens := s.repomanager.Tokens(conn)
	now := s.now()

	token, err := tokens.Lookup(ctx, tokenID)
	if err != nil {
		return "", storeErr("lookup token", err)
	}
	if models.ExpiredSince(token.Created, models.PreAuthWindow, now) {
		return "", common.ErrTokenExpired
	}

	user, err := s.repomanager.Users(conn).Upsert(ctx, claims, now)
	if err != nil {
		return "", storeErr("upsert user", err)
	}
	if user.IsDeleted() {
		return "", common.ErrUserDeleted
	}

	newID, err := tokens.Rotate(ctx, token.ID, user.ID, now)
	if err != nil {
		return "", storeErr("rotate token", err)
	}
	s.metrics.Rotations.Inc()
	return newID, nil
}

// Auth validates an authenticated session. The token must have been used
// within models.SessionWindow; it is rotated before the user is loaded, so a
// call that fails on a deleted user still spends the token.
func (s *SessionService) Auth(ctx context.Context, tokenID string) (*AuthResult, error) {
	start := time.Now()

	res, err := s.auth(ctx, tokenID)
	s.record(ctx, metrics.PathSession, "Auth", err)
	if err != nil {
		return nil, err
	}

	s.reclaimer.Trigger()
	s.log.Info(ctx, "Auth", "elapsed", time.Since(start))
	return res, nil
}

func (s *SessionService) auth(ctx context.Context, tokenID string) (*AuthResult, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tokens := s.repomanager.Tokens(conn)
	now := s.now()

	token, err := tokens.Lookup(ctx, tokenID)
	if err != nil {
		return nil, storeErr("lookup token", err)
	}
	if !token.Bound() {
		return nil, fmt.Errorf("%w: token not bound to a user", common.ErrorUnauthorized)
	}
	if models.ExpiredSince(token.Updated, models.SessionWindow, now) {
		return nil, common.ErrTokenExpired
	}

	newID, err := tokens.Rotate(ctx, token.ID, token.UserID, now)
	if err != nil {
		return nil, storeErr("rotate token", err)
	}
	s.metrics.Rotations.Inc()

	user, err := s.repomanager.Users(conn).FindByID(ctx, token.UserID)
	if err != nil {
		return nil, storeErr("load user", err)
	}
	if user.IsDeleted() {
		return nil, common.ErrUserDeleted
	}

	if _, err := s.gate.Check(ctx, user); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: newID}, nil
}

func (s *SessionService) record(ctx context.Context, path, op string, err error) {
	switch {
	case err == nil:
		s.metrics.Validations.WithLabelValues(path, "ok").Inc()
	case common.IsAuthFailure(err):
		s.metrics.Validations.WithLabelValues(path, "rejected").Inc()
		s.log.Warn(ctx, op+" rejected", "error", err)
	case errors.Is(err, common.ErrorInvalidArgument):
		s.metrics.Validations.WithLabelValues(path, "invalid").Inc()
		s.log.Warn(ctx, op+" invalid claims", "error", err)
	default:
		s.metrics.Validations.WithLabelValues(path, "error").Inc()
		s.log.Error(ctx, op+" failed", "error", err)
	}
}
