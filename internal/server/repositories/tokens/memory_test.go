package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_MintLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	id, err := repo.Mint(ctx, now)
	require.NoError(t, err)

	tok, err := repo.Lookup(ctx, id)
	require.NoError(t, err)
	assert.False(t, tok.Bound())
	assert.Equal(t, now, tok.Created)
	assert.Equal(t, now, tok.Updated)

	_, err = repo.Lookup(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_RotateReplacesID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Now()

	old, err := repo.Mint(ctx, t0)
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	fresh, err := repo.Rotate(ctx, old, "u1", t1)
	require.NoError(t, err)
	require.NotEqual(t, old, fresh)

	_, err = repo.Lookup(ctx, old)
	assert.ErrorIs(t, err, common.ErrorNotFound, "rotated-away id must be gone")

	tok, err := repo.Lookup(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", tok.UserID)
	assert.Equal(t, t0, tok.Created, "created survives rotation")
	assert.Equal(t, t1, tok.Updated)

	_, err = repo.Rotate(ctx, old, "u1", t1)
	assert.ErrorIs(t, err, common.ErrTokenConflict)
}

func TestMemory_ConcurrentRotateExactlyOneWins(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.Mint(ctx, time.Now())
	require.NoError(t, err)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			newID, err := repo.Rotate(ctx, id, "u1", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, newID)
			case errors.Is(err, common.ErrTokenConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, repo.Len(), "no duplicated rows")
}

func TestMemory_DeleteStaleKeepsFreshRows(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	horizon := now.Add(-7 * 24 * time.Hour)

	stale, err := repo.Mint(ctx, horizon.Add(-time.Second))
	require.NoError(t, err)
	fresh, err := repo.Mint(ctx, horizon.Add(time.Second))
	require.NoError(t, err)
	edge, err := repo.Mint(ctx, horizon)
	require.NoError(t, err)

	for range 3 {
		_, err := repo.DeleteStale(ctx, horizon)
		require.NoError(t, err)
	}

	_, err = repo.Lookup(ctx, stale)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.Lookup(ctx, fresh)
	assert.NoError(t, err)
	_, err = repo.Lookup(ctx, edge)
	assert.NoError(t, err)
}
