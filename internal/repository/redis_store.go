package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-tryon/internal/capture"
	"go-tryon/internal/logger"
)

const (
	sessionKeyPrefix = "tryon:session:"
	maxUpdateRetries = 3
)

// RedisOptions configures the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisSessionStore keeps sessions in Redis with a TTL per key.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(opts RedisOptions, ttl time.Duration) (*RedisSessionStore, error) {
	logger.WithField("address", opts.Addr).Info("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrRepositoryUnavailable, err)
	}
	logger.Info("Successfully connected to Redis")

	return NewRedisSessionStoreWithClient(client, ttl), nil
}

// NewRedisSessionStoreWithClient wraps an existing client
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisSessionStore) Save(ctx context.Context, session *capture.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("session_id", session.ID).Error("Failed to save session")
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*capture.Session, error) {
	return s.get(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisSessionStore) get(ctx context.Context, c getter, id string) (*capture.Session, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("session_id", id).Error("Failed to load session")
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return decodeSession(data)
}

// Update uses WATCH so that concurrent updates of one session retry
// instead of overwriting each other.
func (s *RedisSessionStore) Update(ctx context.Context, id string, fn func(*capture.Session) error) (*capture.Session, error) {
	key := sessionKey(id)
	var updated *capture.Session

	txf := func(tx *redis.Tx) error {
		session, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		data, err := encodeSession(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for attempt := 1; attempt <= maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"session_id": id,
			"attempt":    attempt,
		}).Debug("Session changed during update, retrying")
	}
	return nil, fmt.Errorf("%w: session %s kept changing during update", ErrRepositoryUnavailable, id)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
