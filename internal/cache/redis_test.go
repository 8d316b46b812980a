package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Minute), mr
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, _ := newRedisStore(t)
		return s
	})
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	key := AppointmentsKey(7, testFrom, testTo)

	require.NoError(t, Put(ctx, s, key, sampleItems()))
	assert.Equal(t, time.Minute, mr.TTL(redisNamespace+string(key)))

	mr.FastForward(2 * time.Minute)
	e, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, e.Found)
}

func TestRedisStoreCorruptEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	key := AppointmentsKey(7, testFrom, testTo)

	require.NoError(t, mr.Set(redisNamespace+string(key), "{not json"))

	e, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, e.Found)
}

func TestRedisStoreRollbackRestoresWindow(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)
	key := AppointmentsKey(7, testFrom, testTo)
	require.NoError(t, Put(ctx, s, key, sampleItems()))

	m, err := Begin(ctx, s, key, 1)
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, moveTo(at(14, 0), at(15, 0))))

	restored, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	e, _ := s.Load(ctx, key)
	assert.True(t, e.Items[0].StartTime.Equal(at(10, 0)))
	assert.True(t, e.Items[0].EndTime.Equal(at(11, 0)))
}
