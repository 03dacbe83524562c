package utils

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
)

const gateTokenPrefix = "adminGate:"

// AdminTokenStore tracks which admin-gate tokens are currently active, so a
// token can be revoked before its JWT expiry.
type AdminTokenStore interface {
	Save(ctx context.Context, token string, ttl time.Duration) error
	Active(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

// RedisAdminTokenStore keeps hashed tokens in Redis with a TTL matching the
// token expiry.
type RedisAdminTokenStore struct {
	Client *redis.Client
}

func NewRedisAdminTokenStore(client *redis.Client) *RedisAdminTokenStore {
	return &RedisAdminTokenStore{Client: client}
}

func (s *RedisAdminTokenStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	return s.Client.Set(ctx, gateTokenPrefix+HashToken(token), "1", ttl).Err()
}

func (s *RedisAdminTokenStore) Active(ctx context.Context, token string) (bool, error) {
	_, err := s.Client.Get(ctx, gateTokenPrefix+HashToken(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisAdminTokenStore) Revoke(ctx context.Context, token string) error {
	return s.Client.Del(ctx, gateTokenPrefix+HashToken(token)).Err()
}

// CheckPassphrase verifies a supplied admin passphrase against the configured
// value. A bcrypt hash is recognized by its prefix; anything else is compared
// in constant time.
func CheckPassphrase(configured, supplied string) bool {
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}
