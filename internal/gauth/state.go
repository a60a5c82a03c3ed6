package gauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTokenBytes is the number of random bytes in a state token.
const stateTokenBytes = 16

// DefaultStateTTL bounds how long an abandoned handshake can be completed.
const DefaultStateTTL = 10 * time.Minute

// StateStore holds pending-authorization state keyed by the opaque state
// token, with a bounded TTL. Each entry is consumed at most once: Take
// deletes on read, so a second callback with the same token fails closed.
type StateStore interface {
	// Put stores the original-request payload under the state token.
	Put(ctx context.Context, token string, payload []byte) error

	// Take retrieves and deletes the payload for the state token. Returns
	// ErrInvalidOrExpiredState when the token is absent or expired.
	Take(ctx context.Context, token string) ([]byte, error)
}

// NewStateToken produces a cryptographically random hex string for the
// OAuth2 state parameter. Unguessable by construction, which is what makes
// the callback correlation safe against CSRF.
func NewStateToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("gauth: generating state token: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// RedisStateStore is a StateStore backed by redis with native key expiry.
// Redis is the right home for this state: it survives process restarts and
// is shared across instances, so a handshake begun on one replica can
// complete on another.
type RedisStateStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// redisStatePrefix namespaces handshake keys in a shared redis.
const redisStatePrefix = "gdocs:authstate:"

// NewRedisStateStore creates a redis-backed state store. A zero ttl uses
// DefaultStateTTL.
func NewRedisStateStore(rdb redis.Cmdable, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStateStore) Put(ctx context.Context, token string, payload []byte) error {
	if err := s.rdb.Set(ctx, redisStatePrefix+token, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("gauth: storing pending state: %w", err)
	}

	return nil
}

func (s *RedisStateStore) Take(ctx context.Context, token string) ([]byte, error) {
	// GETDEL makes lookup and consumption a single atomic step, so two
	// callbacks racing on the same token cannot both succeed.
	val, err := s.rdb.GetDel(ctx, redisStatePrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidOrExpiredState
	}

	if err != nil {
		return nil, fmt.Errorf("gauth: consuming pending state: %w", err)
	}

	return val, nil
}

// MemoryStateStore is an in-process StateStore for tests and single-node
// development. Not adequate for multi-instance deployments — state written
// on one instance is invisible to the others.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryStateEntry
	ttl     time.Duration
	nowFunc func() time.Time // injectable for deterministic tests
}

type memoryStateEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStateStore creates an in-memory state store. A zero ttl uses
// DefaultStateTTL.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	return &MemoryStateStore{
		entries: make(map[string]memoryStateEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (s *MemoryStateStore) Put(_ context.Context, token string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()

	// Opportunistically drop expired entries so abandoned handshakes don't
	// accumulate.
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	s.entries[token] = memoryStateEntry{
		payload:   payload,
		expiresAt: now.Add(s.ttl),
	}

	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, ErrInvalidOrExpiredState
	}

	delete(s.entries, token)

	if !s.nowFunc().Before(e.expiresAt) {
		return nil, ErrInvalidOrExpiredState
	}

	return e.payload, nil
}
