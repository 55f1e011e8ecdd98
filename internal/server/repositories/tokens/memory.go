package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// MemoryRepository keeps tokens in a map guarded by a mutex. It is used for
// local development and tests.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.Token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.Token)}
}

func (r *MemoryRepository) Mint(ctx context.Context, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := NewID()
	r.tokens[id] = models.Token{ID: id, Created: now, Updated: now}
	return id, nil
}

func (r *MemoryRepository) Lookup(ctx context.Context, id string) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) Rotate(ctx context.Context, oldID string, userID string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[oldID]
	if !ok {
		return "", common.ErrTokenConflict
	}
	delete(r.tokens, oldID)

	t.ID = NewID()
	t.UserID = userID
	t.Updated = now
	r.tokens[t.ID] = t
	return t.ID, nil
}

func (r *MemoryRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.Updated.Before(before) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored tokens.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
