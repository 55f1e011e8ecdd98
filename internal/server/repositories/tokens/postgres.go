package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB, *sql.Conn or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Mint(ctx context.Context, now time.Time) (string, error) {
	query := `
		INSERT INTO tokens (id, created, updated)
		VALUES ($1, $2, $2)
	`
	id := NewID()
	if _, err := r.db.ExecContext(ctx, query, id, now); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Lookup(ctx context.Context, id string) (*models.Token, error) {
	query := `
		SELECT id, user_id, created, updated
		FROM tokens
		WHERE id = $1
	`
	var (
		token  models.Token
		userID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&token.ID, &userID, &token.Created, &token.Updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	token.UserID = userID.String
	return &token, nil
}

// Rotate relies on the single-statement UPDATE: a concurrent rotation of the
// same id re-evaluates the WHERE clause after the first commit and matches
// nothing.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, userID string, now time.Time) (string, error) {
	query := `
		UPDATE tokens
		SET id = $1, user_id = $2, updated = $3
		WHERE id = $4
	`
	newID := NewID()
	res, err := r.db.ExecContext(ctx, query, newID, userID, now, oldID)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return "", common.ErrTokenConflict
	}
	return newID, nil
}

func (r *PostgresRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE updated < $1
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
