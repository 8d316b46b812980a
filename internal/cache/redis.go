package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

const (
	redisNamespace = "agenda:"
	redisSeqKey    = redisNamespace + "version_seq"
)

// RedisStore shares the cache between instances. Compare-and-set uses
// WATCH/MULTI on the entry key.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) redisKey(key Key) string {
	return redisNamespace + string(key)
}

func (s *RedisStore) Load(ctx context.Context, key Key) (Entry, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// entrada corrompida conta como ausente
		return Entry{}, nil
	}
	e.Found = true
	return e, nil
}

func (s *RedisStore) Save(ctx context.Context, key Key, items []models.Appointment, expected uint64) (uint64, error) {
	next, err := s.rdb.Incr(ctx, redisSeqKey).Uint64()
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(Entry{Items: items, Version: next})
	if err != nil {
		return 0, err
	}

	rk := s.redisKey(key)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		var current uint64
		raw, err := tx.Get(ctx, rk).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var e Entry
			if json.Unmarshal(raw, &e) == nil {
				current = e.Version
			}
		}

		if current != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, s.ttl)
			return nil
		})
		return err
	}, rk)

	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *RedisStore) LoadAggregate(ctx context.Context, key Key, out any) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) SaveAggregate(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.redisKey(key), data, s.ttl).Err()
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, redisNamespace+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]Key, error) {
	var keys []Key
	iter := s.rdb.Scan(ctx, 0, redisNamespace+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, Key(strings.TrimPrefix(iter.Val(), redisNamespace)))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *RedisStore) DeleteKeys(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = s.redisKey(k)
	}
	return s.rdb.Del(ctx, names...).Err()
}

var _ Store = (*RedisStore)(nil)
