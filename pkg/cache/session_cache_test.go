package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

// --- Mock store ---

type mockStore struct {
	loadFn func(ctx context.Context, userID int64) (models.CartState, error)
	saveFn func(ctx context.Context, userID int64, state models.CartState) error
}

func (m *mockStore) Load(ctx context.Context, userID int64) (models.CartState, error) {
	return m.loadFn(ctx, userID)
}
func (m *mockStore) Save(ctx context.Context, userID int64, state models.CartState) error {
	return m.saveFn(ctx, userID, state)
}

func sampleState() models.CartState {
	return models.CartState{Cart: []models.BookableItem{{
		ID: "e1", DisplayName: "Techno Night", Quantity: 1, FullPrice: pricing.FromDollars(35),
		PaymentOption: models.PayFull, Details: models.EventDetails{EventID: "ev-1", Guest: models.Self()},
	}}}
}

const ttl = 15 * time.Minute

func TestLoad_CacheHitSkipsStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	raw, err := json.Marshal(sampleState())
	require.NoError(t, err)
	mock.ExpectGet(key(7)).SetVal(string(raw))

	store := &mockStore{loadFn: func(ctx context.Context, userID int64) (models.CartState, error) {
		t.Fatal("store should not be called on a cache hit")
		return models.CartState{}, nil
	}}
	c := NewSessionCache(store, rdb, ttl, zap.NewNop())

	state, err := c.Load(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, state.Cart, 1)
	assert.Equal(t, "e1", state.Cart[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_MissFillsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	state := sampleState()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	mock.ExpectGet(key(7)).RedisNil()
	mock.ExpectSet(key(7), raw, ttl).SetVal("OK")

	store := &mockStore{loadFn: func(ctx context.Context, userID int64) (models.CartState, error) {
		return state, nil
	}}
	c := NewSessionCache(store, rdb, ttl, zap.NewNop())

	got, err := c.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, state.Cart[0].ID, got.Cart[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_RedisDownFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(key(7)).SetErr(errors.New("connection refused"))

	called := false
	store := &mockStore{loadFn: func(ctx context.Context, userID int64) (models.CartState, error) {
		called = true
		return models.CartState{}, nil
	}}
	c := NewSessionCache(store, rdb, ttl, zap.NewNop())

	_, err := c.Load(context.Background(), 7)
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestSave_StoreErrorForgetsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel(key(7)).SetVal(1)

	store := &mockStore{saveFn: func(ctx context.Context, userID int64, state models.CartState) error {
		return errors.New("db down")
	}}
	c := NewSessionCache(store, rdb, ttl, zap.NewNop())

	err := c.Save(context.Background(), 7, sampleState())
	assert.EqualError(t, err, "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_WritesThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	state := sampleState()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	mock.ExpectSet(key(7), raw, ttl).SetVal("OK")

	saved := false
	store := &mockStore{saveFn: func(ctx context.Context, userID int64, s models.CartState) error {
		saved = true
		return nil
	}}
	c := NewSessionCache(store, rdb, ttl, zap.NewNop())

	require.NoError(t, c.Save(context.Background(), 7, state))
	assert.True(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
