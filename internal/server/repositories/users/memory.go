package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// MemoryRepository is a map-backed Repository for local development and tests.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Upsert(ctx context.Context, claims models.Claims, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bySub, byEmail *models.User
	for _, u := range r.users {
		switch {
		case u.Sub == claims.Sub:
			bySub = &u
		case u.Email == claims.Email:
			byEmail = &u
		}
	}

	if target := bySub; target != nil || byEmail != nil {
		if target == nil {
			target, byEmail = byEmail, nil
		}
		if merge(target, claims, byEmail != nil, now) {
			r.users[target.ID] = *target
		}
		u := *target
		return &u, nil
	}

	u := models.User{
		ID:      newID(),
		Email:   claims.Email,
		Sub:     claims.Sub,
		Avatar:  claims.Avatar,
		Created: now,
		Updated: now,
		Deleted: models.NotDeleted,
	}
	r.users[u.ID] = u
	return &u, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// SoftDelete stamps the user as deleted at the given instant.
func (r *MemoryRepository) SoftDelete(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Deleted = at
	r.users[id] = u
	return nil
}

// Count returns the number of stored users.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
