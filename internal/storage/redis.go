package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix         = "unlock:"
	maxUpdateAttempts = 5
)

// RedisStore implements UnlockStore on Redis. Each visitor's state is one
// JSON value whose TTL is refreshed on every write.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStore implements UnlockStore interface
var _ UnlockStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	var opt *redis.Options
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: redisURL}
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
		ttl:    ttl,
	}, nil
}

func stateKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// Client exposes the underlying client for pub/sub.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Unlock state operations

func (r *RedisStore) Load(ctx context.Context, visitorID uuid.UUID) (*unlock.State, error) {
	return r.get(ctx, r.client, visitorID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) get(ctx context.Context, g getter, visitorID uuid.UUID) (*unlock.State, error) {
	data, err := g.Get(ctx, stateKey(visitorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load unlock state", "visitor_id", visitorID, "error", err)
		return nil, fmt.Errorf("failed to load unlock state: %w", err)
	}
	if data == "" {
		return nil, nil
	}

	var st unlock.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		r.logger.Error("Failed to unmarshal unlock state", "visitor_id", visitorID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal unlock state: %w", err)
	}
	return &st, nil
}

// Update runs fn inside a WATCH/MULTI transaction so two concurrent
// unlocks for one visitor cannot overwrite each other.
func (r *RedisStore) Update(ctx context.Context, visitorID uuid.UUID, fn UpdateFunc) (*unlock.State, error) {
	key := stateKey(visitorID)
	var result *unlock.State

	txf := func(tx *redis.Tx) error {
		st, err := r.get(ctx, tx, visitorID)
		if err != nil {
			return err
		}
		if st == nil {
			st = unlock.NewState(visitorID)
		}

		changed, err := fn(st)
		if err != nil {
			return err
		}
		result = st
		if !changed {
			return nil
		}

		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to marshal unlock state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("Unlock state changed concurrently, retrying", "visitor_id", visitorID, "attempt", attempt)
			continue
		}
		return nil, err
	}

	r.logger.Warn("Giving up on unlock state update", "visitor_id", visitorID)
	return nil, ErrConflict
}
