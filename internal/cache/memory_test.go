package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := AppointmentsKey(7, testFrom, testTo)
	require.NoError(t, Put(ctx, s, key, sampleItems()))

	e, _ := s.Load(ctx, key)
	e.Items[0].Status = "canceled"

	again, _ := s.Load(ctx, key)
	assert.Equal(t, "scheduled", again.Items[0].Status)
}

func TestMemoryStoreVersionsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := AppointmentsKey(7, testFrom, testTo)

	v1, err := s.Save(ctx, key, sampleItems(), 0)
	require.NoError(t, err)
	require.NoError(t, InvalidateBusiness(ctx, s, 7))

	v2, err := s.Save(ctx, key, sampleItems(), 0)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := testDay
	s := NewMemoryStoreTTL(time.Minute)
	s.now = func() time.Time { return now }

	key := AppointmentsKey(7, testFrom, testTo)
	require.NoError(t, Put(ctx, s, key, sampleItems()))
	require.NoError(t, s.SaveAggregate(ctx, RevenueKey(7, testDay), dailyTotal{Count: 1}))

	now = now.Add(30 * time.Second)
	e, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, e.Found)

	now = now.Add(time.Minute)
	e, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, e.Found)

	ok, err := s.LoadAggregate(ctx, RevenueKey(7, testDay), &dailyTotal{})
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.Keys(ctx, BusinessPrefix(AppointmentsPrefix, 7))
	require.NoError(t, err)
	assert.Empty(t, keys)

	// expirada conta como ausente para o CAS
	_, err = s.Save(ctx, key, sampleItems(), 0)
	assert.NoError(t, err)
}

func TestMemoryStoreWithoutTTLKeepsEntries(t *testing.T) {
	ctx := context.Background()
	now := testDay
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	key := AppointmentsKey(7, testFrom, testTo)
	require.NoError(t, Put(ctx, s, key, sampleItems()))

	now = now.Add(24 * time.Hour)
	e, _ := s.Load(ctx, key)
	assert.True(t, e.Found)
}
