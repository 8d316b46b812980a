package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// MemoryStore keeps everything in process. Used by a single instance and by
// tests.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[Key]Entry
	aggregates map[Key][]byte
	expires    map[Key]time.Time
	versions   uint64

	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore never expires entries.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreTTL(0)
}

// NewMemoryStoreTTL expires every write after ttl, like RedisStore does.
func NewMemoryStoreTTL(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[Key]Entry),
		aggregates: make(map[Key][]byte),
		expires:    make(map[Key]time.Time),
		ttl:        ttl,
		now:        time.Now,
	}
}

// touch renews the deadline of key. Caller holds mu.
func (s *MemoryStore) touch(key Key) {
	if s.ttl > 0 {
		s.expires[key] = s.now().Add(s.ttl)
	}
}

// expire drops key when its deadline passed. Caller holds mu.
func (s *MemoryStore) expire(key Key) {
	deadline, ok := s.expires[key]
	if !ok || s.now().Before(deadline) {
		return
	}
	s.drop(key)
}

func (s *MemoryStore) drop(key Key) {
	delete(s.entries, key)
	delete(s.aggregates, key)
	delete(s.expires, key)
}

func (s *MemoryStore) Load(_ context.Context, key Key) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(key)
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, nil
	}
	return Entry{Items: cloneItems(e.Items), Version: e.Version, Found: true}, nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, items []models.Appointment, expected uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(key)
	if s.entries[key].Version != expected {
		return 0, ErrVersionConflict
	}

	// versões crescem globalmente: uma chave apagada e recriada nunca
	// reaproveita um número antigo
	s.versions++
	s.entries[key] = Entry{Items: cloneItems(items), Version: s.versions, Found: true}
	s.touch(key)
	return s.versions, nil
}

func (s *MemoryStore) LoadAggregate(_ context.Context, key Key, out any) (bool, error) {
	s.mu.Lock()
	s.expire(key)
	raw, ok := s.aggregates[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) SaveAggregate(_ context.Context, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.aggregates[key] = raw
	s.touch(key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.entries {
		if strings.HasPrefix(string(k), prefix) {
			s.drop(k)
		}
	}
	for k := range s.aggregates {
		if strings.HasPrefix(string(k), prefix) {
			s.drop(k)
		}
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []Key
	collect := func(k Key) {
		s.expire(k)
		_, isEntry := s.entries[k]
		_, isAggregate := s.aggregates[k]
		if isEntry || isAggregate {
			keys = append(keys, k)
		}
	}
	for k := range s.entries {
		if strings.HasPrefix(string(k), prefix) {
			collect(k)
		}
	}
	for k := range s.aggregates {
		if _, dup := s.entries[k]; !dup && strings.HasPrefix(string(k), prefix) {
			collect(k)
		}
	}
	return keys, nil
}

func (s *MemoryStore) DeleteKeys(_ context.Context, keys ...Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.drop(k)
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
