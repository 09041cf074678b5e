package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/buttery-backend/pkg/config"
	redisclient "github.com/angelmondragon/buttery-backend/pkg/redis"
)

var (
	errAccessIDRequired = errors.New("access id is required")
	errNetIDRequired    = errors.New("netid is required")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(accessID string) string
}

// AccessSessionChecker is all the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one Redis key per issued access token, valued with the owner's
// netid and expiring with the token. Logout deletes the key, which revokes the
// token before its exp.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, client, cfg.TTL())
}

func newManager(store sessionStore, keyer sessionKeyer, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errAccessIDRequired
	}
	return m.keyer.SessionKey(accessID), nil
}

func (m *Manager) Open(ctx context.Context, accessID, netID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(netID) == "" {
		return errNetIDRequired
	}
	return m.store.Set(ctx, key, netID, m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the netid a live session belongs to, or "" once it is gone.
func (m *Manager) Owner(ctx context.Context, accessID string) (string, error) {
	key, err := m.key(accessID)
	if err != nil {
		return "", err
	}
	netID, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return "", nil
	}
	return netID, err
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	owner, err := m.Owner(ctx, accessID)
	if err != nil {
		return false, err
	}
	return owner != "", nil
}

// NewAccessID mints the id used as both the JWT jti and the session key.
func NewAccessID() string {
	return uuid.NewString()
}
