package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// RotationStore tracks refresh tokens already consumed by a rotation. Only
// the sha256 of the token is stored, never the token itself, and entries
// live exactly as long as the token would have.
//
// This is not a revocation list: an unconsumed refresh token stays valid
// until natural expiry, logout included.
type RotationStore interface {
	MarkConsumed(ctx context.Context, token string, ttl time.Duration) error
	IsConsumed(ctx context.Context, token string) (bool, error)
}

const consumedPrefix = "refresh:consumed:"

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return consumedPrefix + hex.EncodeToString(sum[:])
}

type redisRotation struct{ c *Cache }

// Rotation returns a redis-backed RotationStore sharing this client.
func (c *Cache) Rotation() RotationStore { return &redisRotation{c: c} }

func (r *redisRotation) MarkConsumed(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to remember
	}
	return r.c.RDB.Set(ctx, tokenKey(token), 1, ttl).Err()
}

func (r *redisRotation) IsConsumed(ctx context.Context, token string) (bool, error) {
	n, err := r.c.RDB.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRotation is a process-local RotationStore for single-instance
// deployments without redis, and for tests.
type MemoryRotation struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryRotation() *MemoryRotation {
	return &MemoryRotation{entries: make(map[string]time.Time)}
}

func (m *MemoryRotation) MarkConsumed(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenKey(token)] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryRotation) IsConsumed(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.entries[tokenKey(token)]
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		delete(m.entries, tokenKey(token))
		return false, nil
	}
	return true, nil
}
