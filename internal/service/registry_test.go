package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

// countingStore counts loads per user and fails while failLoads is positive.
type countingStore struct {
	mu        sync.Mutex
	loads     map[int64]int
	failLoads int
}

func newCountingStore() *countingStore {
	return &countingStore{loads: make(map[int64]int)}
}

func (s *countingStore) Load(ctx context.Context, userID int64) (models.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoads > 0 {
		s.failLoads--
		return models.CartState{}, errDBDown
	}
	s.loads[userID]++
	return models.CartState{}, nil
}

func (s *countingStore) Save(ctx context.Context, userID int64, state models.CartState) error {
	return nil
}

func (s *countingStore) count(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[userID]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionRegistry_IdleSessionReloaded(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	clock := &fakeClock{now: testNow}
	r := newSessionRegistry(store, clock.Now, time.Hour)

	s, err := r.acquire(ctx, 1)
	require.NoError(t, err)
	r.release(s)

	s, err = r.acquire(ctx, 1)
	require.NoError(t, err)
	r.release(s)
	assert.Equal(t, 1, store.count(1), "a recently used session stays in memory")

	clock.Advance(time.Hour + time.Minute)
	s, err = r.acquire(ctx, 2)
	require.NoError(t, err)
	r.release(s)
	assert.NotContains(t, r.byUser, int64(1))

	s, err = r.acquire(ctx, 1)
	require.NoError(t, err)
	r.release(s)
	assert.Equal(t, 2, store.count(1))
}

func TestSessionRegistry_HeldSessionNotEvicted(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	clock := &fakeClock{now: testNow}
	r := newSessionRegistry(store, clock.Now, time.Hour)

	held, err := r.acquire(ctx, 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	s, err := r.acquire(ctx, 2)
	require.NoError(t, err)
	r.release(s)
	assert.Same(t, held, r.byUser[1])

	r.release(held)
	s, err = r.acquire(ctx, 1)
	require.NoError(t, err)
	r.release(s)
	assert.Equal(t, 1, store.count(1))
}

func TestSessionRegistry_FailedLoadLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.failLoads = 1
	clock := &fakeClock{now: testNow}
	r := newSessionRegistry(store, clock.Now, time.Hour)

	_, err := r.acquire(ctx, 1)
	assert.ErrorIs(t, err, errDBDown)
	assert.Empty(t, r.byUser)

	s, err := r.acquire(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, s.cart)
	r.release(s)
	assert.Equal(t, 1, store.count(1))
}
