package credentials

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nutriview/catalog-client/pkg/logging"
)

// DefaultRedisKey is the key the token is stored under when none is given.
const DefaultRedisKey = "catalog:credential:token"

// RedisStore keeps the token in Redis so several browser processes can share
// one login session.
type RedisStore struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed store. An empty key selects
// DefaultRedisKey.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis:  redisClient,
		key:    key,
		logger: logging.NewLogger("credentials"),
	}
}

// Save replaces the current token. The token does not expire server-side;
// expiry is discovered by a rejected request.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, 0).Err(); err != nil {
		StoreErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	TokenSaves.WithLabelValues("redis").Inc()
	s.logger.Debug().Str("key", s.key).Msg("Token saved")
	return nil
}

// Read returns the current token, or "" if the key does not exist.
func (s *RedisStore) Read(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			TokenReads.WithLabelValues("redis", "miss").Inc()
			return "", nil
		}
		StoreErrors.WithLabelValues("redis", "read").Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}
	TokenReads.WithLabelValues("redis", "hit").Inc()
	return token, nil
}

// Clear removes the token key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		StoreErrors.WithLabelValues("redis", "clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	TokenClears.WithLabelValues("redis").Inc()
	s.logger.Debug().Str("key", s.key).Msg("Token cleared")
	return nil
}
