package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) SessionKey(accessID string) string { return "session:" + accessID }

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	mgr, err := newManager(store, prefixKeyer{}, time.Hour)
	require.NoError(t, err)

	accessID := NewAccessID()
	require.NoError(t, mgr.Open(ctx, accessID, "abc123"))
	require.Equal(t, "abc123", store.data["session:"+accessID])

	ok, err := mgr.HasSession(ctx, accessID)
	require.NoError(t, err)
	require.True(t, ok)

	owner, err := mgr.Owner(ctx, accessID)
	require.NoError(t, err)
	require.Equal(t, "abc123", owner)

	require.NoError(t, mgr.Revoke(ctx, accessID))
	ok, err = mgr.HasSession(ctx, accessID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasSessionSurfacesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	mgr, err := newManager(store, prefixKeyer{}, time.Hour)
	require.NoError(t, err)

	_, err = mgr.HasSession(context.Background(), "jti")
	require.Error(t, err)
}

func TestManagerValidation(t *testing.T) {
	_, err := newManager(newMockStore(), prefixKeyer{}, 0)
	require.Error(t, err)

	mgr, err := newManager(newMockStore(), prefixKeyer{}, time.Minute)
	require.NoError(t, err)
	require.Error(t, mgr.Open(context.Background(), "", "abc123"))
	require.Error(t, mgr.Open(context.Background(), "jti", " "))
	require.ErrorIs(t, mgr.Revoke(context.Background(), ""), errAccessIDRequired)
	require.ErrorIs(t, mgr.Open(context.Background(), "jti", ""), errNetIDRequired)
	_, err = mgr.HasSession(context.Background(), " ")
	require.ErrorIs(t, err, errAccessIDRequired)
}
