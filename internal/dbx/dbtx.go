// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal query interface (DBTX) implemented by *sql.DB, *sql.Conn and
// *sql.Tx, request-scoped connection handles (Pool / Conn), and a helper to
// run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is the subset of database/sql used by our repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Beginner starts transactions. *sql.DB and *sql.Conn satisfy it; *sql.Tx does not.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Conn is a connection held for the duration of one request. Close returns
// it to the pool.
type Conn interface {
	DBTX
	Beginner
	Close() error
}

// Pool hands out request-scoped connections.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// SQLPool adapts *sql.DB to Pool.
type SQLPool struct {
	DB *sql.DB
}

// Acquire reserves one physical connection from the underlying pool.
func (p SQLPool) Acquire(ctx context.Context) (Conn, error) {
	return p.DB.Conn(ctx)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// InTx runs fn inside a new transaction when db can begin one, and directly
// on db otherwise (db is already a transaction).
func InTx(ctx context.Context, db DBTX, fn func(ctx context.Context, tx DBTX) error) error {
	if b, ok := db.(Beginner); ok {
		return WithTx(ctx, b, nil, fn)
	}
	return fn(ctx, db)
}

// ErrNoDatabase is returned by connections handed out by NopPool.
var ErrNoDatabase = errors.New("no database configured")

// NopPool hands out placeholder connections for storage backends that keep
// their state in process memory and never issue SQL.
type NopPool struct{}

func (NopPool) Acquire(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrNoDatabase
}

func (nopConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, ErrNoDatabase
}

// QueryRowContext has no way to carry an error without a driver, so it
// returns nil.
func (nopConn) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func (nopConn) BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error) {
	return nil, ErrNoDatabase
}

func (nopConn) Close() error { return nil }
