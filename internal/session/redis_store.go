package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "session:user:%d"
	sessionScanPattern = "session:user:*"
	sessionScanBatch   = 100
)

// RedisStore persists conversation sessions in Redis with a native TTL, so
// idle sessions expire without help from the cleaner.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	key := redisSessionKey(userID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.log.Error("failed to decode session", "user_id", userID, "error", err)
		return nil, err
	}

	return &sess, nil
}

// Set saves the provided session under the configured TTL.
func (s *RedisStore) Set(ctx context.Context, userID int64, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		s.log.Error("failed to encode session", "user_id", userID, "error", err)
		return err
	}

	key := redisSessionKey(userID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored session for the given user.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	key := redisSessionKey(userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to clear session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// All retrieves every stored session by scanning Redis keys.
func (s *RedisStore) All(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, sessionScanPattern, sessionScanBatch).Result()
		if err != nil {
			s.log.Error("failed to scan sessions", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch session", "key", key, "error", err)
				return nil, err
			}

			var sess Session
			if err := json.Unmarshal([]byte(data), &sess); err != nil {
				s.log.Error("failed to decode session", "key", key, "error", err)
				continue
			}

			copied := sess
			result = append(result, &copied)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func redisSessionKey(userID int64) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}
