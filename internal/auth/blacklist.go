package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore records revoked tokens until they would have expired
// anyway. Injected into the handlers so deployments can share one
// store across instances.
type TokenStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Tokens are stored by hash; neither store ever holds a usable token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is the single-process default. Entries disappear on
// restart and are not shared across instances.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // hash -> expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	// sweep expired entries while we hold the lock anyway
	for h, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, h)
		}
	}
	s.revoked[hashToken(token)] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.revoked[hashToken(token)]
	s.mu.RUnlock()
	return ok && exp.After(time.Now()), nil
}

// RedisStore shares revocations across instances; expiry cleanup is
// Redis's TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "revoked:",
	}
}

func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.rdb.Set(ctx, s.prefix+hashToken(token), "1", ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.prefix+hashToken(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
