package users

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, sub, avatar, created, updated, deleted`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Sub, &u.Avatar, &u.Created, &u.Updated, &u.Deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Upsert locks every row matching the sub or the email, sub match first.
// A concurrent first login that wins the INSERT race is picked up by a
// second lookup instead of failing on the unique index.
func (r *PostgresRepository) Upsert(ctx context.Context, claims models.Claims, now time.Time) (*models.User, error) {
	var user *models.User

	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for attempt := 0; attempt < 2; attempt++ {
			matches, err := r.lockMatches(ctx, tx, claims)
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				u, err := r.insert(ctx, tx, claims, now)
				if err != nil {
					return err
				}
				if u == nil {
					continue
				}
				user = u
				return nil
			}

			// a second row can only be the owner of claims.Email
			target := matches[0]
			if !merge(target, claims, len(matches) > 1, now) {
				user = target
				return nil
			}

			updateQuery :=
				`UPDATE users SET email = $2, sub = $3, avatar = $4, updated = $5
				 WHERE id = $1
				 `
			if _, err := tx.ExecContext(ctx, updateQuery, target.ID, target.Email, target.Sub, target.Avatar, now); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			user = target
			return nil
		}
		return fmt.Errorf("%w: user upsert kept conflicting", common.ErrorUnavailable)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *PostgresRepository) lockMatches(ctx context.Context, tx dbx.DBTX, claims models.Claims) ([]*models.User, error) {
	selectQuery :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE sub = $1 OR email = $2
		 ORDER BY (sub = $1) DESC
		 FOR UPDATE
		 `
	rows, err := tx.QueryContext(ctx, selectQuery, claims.Sub, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var matches []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Sub, &u.Avatar, &u.Created, &u.Updated, &u.Deleted); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		matches = append(matches, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return matches, nil
}

// insert returns nil, nil when another transaction inserted the same
// sub or email first.
func (r *PostgresRepository) insert(ctx context.Context, tx dbx.DBTX, claims models.Claims, now time.Time) (*models.User, error) {
	insertQuery :=
		`INSERT INTO users (id, email, sub, avatar, created, updated, deleted)
		 VALUES ($1, $2, $3, $4, $5, $5, $6)
		 ON CONFLICT DO NOTHING
		 `
	u := &models.User{
		ID:      newID(),
		Email:   claims.Email,
		Sub:     claims.Sub,
		Avatar:  claims.Avatar,
		Created: now,
		Updated: now,
		Deleted: models.NotDeleted,
	}
	res, err := tx.ExecContext(ctx, insertQuery, u.ID, u.Email, u.Sub, u.Avatar, now, u.Deleted)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return u, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}
