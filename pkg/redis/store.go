package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/stockroom/pkg/idlesession"
)

// Store implements idlesession.Store on top of Redis. Every key is
// namespaced with the configured prefix and written with the record TTL, so
// records of tabs that vanished without logging out expire on their own.
type Store struct {
	db            redis.UniversalClient
	prefix        string
	ttl           time.Duration
	scanBatchSize int64
}

var _ idlesession.Store = (*Store)(nil)

// NewStore creates a Redis backed store with defaults: no prefix, no TTL and
// a scan batch size of 1000.
func NewStore(redisClient redis.UniversalClient) *Store {
	return &Store{
		db:            redisClient,
		scanBatchSize: 1000,
	}
}

// NewStoreWithConfig creates a Redis backed store using prefix, TTL and scan
// batch size from cfg.
func NewStoreWithConfig(redisClient redis.UniversalClient, cfg Config) *Store {
	s := NewStore(redisClient)
	s.prefix = cfg.KeyPrefix
	s.ttl = max(0, cfg.RecordTTL)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = int64(cfg.ScanBatchSize)
	}
	return s
}

// Get returns idlesession.ErrNotFound for missing keys.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", idlesession.ErrNotFound
	}
	return val, err
}

// Set stores the value and refreshes the TTL.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Remove deletes a key. Missing keys are not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Del(ctx, s.prefix+key).Err()
}

// Reset deletes every key under the store prefix. SCAN is used so the server
// is never blocked by KEYS.
func (s *Store) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.db.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
