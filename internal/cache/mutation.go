package cache

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

const maxCASAttempts = 5

type mutationState int

const (
	stateBegun mutationState = iota
	stateApplied
	stateCommitted
	stateRolledBack
)

// Mutation is one optimistic change to one appointment of a cached view:
// Begin (snapshot) -> Apply -> Commit | Rollback.
type Mutation struct {
	store    Store
	key      Key
	id       uint
	snapshot Entry
	applied  models.Appointment
	version  uint64
	state    mutationState
}

// Begin snapshots the collection under key. The appointment must be in it.
func Begin(ctx context.Context, s Store, key Key, id uint) (*Mutation, error) {
	entry, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !entry.Found {
		return nil, ErrNotCached
	}
	if indexOf(entry.Items, id) < 0 {
		return nil, ErrNotInView
	}

	entry.Items = cloneItems(entry.Items)
	return &Mutation{store: s, key: key, id: id, snapshot: entry, state: stateBegun}, nil
}

// Original is the appointment as it was when the snapshot was taken.
func (m *Mutation) Original() models.Appointment {
	return m.snapshot.Items[indexOf(m.snapshot.Items, m.id)]
}

func (m *Mutation) Snapshot() Entry {
	return Entry{Items: cloneItems(m.snapshot.Items), Version: m.snapshot.Version, Found: true}
}

// Apply writes fn's change to the cached appointment right away.
func (m *Mutation) Apply(ctx context.Context, fn func(ap *models.Appointment)) error {
	if m.state != stateBegun {
		return errors.New("cache: mutation already applied")
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := m.store.Load(ctx, m.key)
		if err != nil {
			return err
		}
		if !cur.Found {
			return ErrNotCached
		}

		items := cloneItems(cur.Items)
		idx := indexOf(items, m.id)
		if idx < 0 {
			return ErrNotInView
		}
		fn(&items[idx])

		v, err := m.store.Save(ctx, m.key, items, cur.Version)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}

		m.applied = items[idx]
		m.version = v
		m.state = stateApplied
		return nil
	}
	return ErrVersionConflict
}

// Commit closes the mutation; the optimistic value is already in place.
func (m *Mutation) Commit() {
	m.state = stateCommitted
}

// Rollback restores the snapshot. When nobody wrote the key after Apply the
// whole collection goes back exactly as it was. Otherwise only this
// appointment's record is restored, and not even that if a newer mutation
// already rewrote it. It reports whether anything was restored.
func (m *Mutation) Rollback(ctx context.Context) (bool, error) {
	switch m.state {
	case stateBegun:
		m.state = stateRolledBack
		return false, nil
	case stateCommitted, stateRolledBack:
		return false, errors.New("cache: mutation already finished")
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := m.store.Load(ctx, m.key)
		if err != nil {
			return false, err
		}
		if !cur.Found {
			// invalidated meanwhile; next read refetches from the remote
			m.state = stateRolledBack
			return false, nil
		}

		var items []models.Appointment
		if cur.Version == m.version {
			items = cloneItems(m.snapshot.Items)
		} else {
			items = cloneItems(cur.Items)
			idx := indexOf(items, m.id)
			if idx < 0 || !sameWindow(items[idx], m.applied) {
				m.state = stateRolledBack
				return false, nil
			}
			items[idx] = m.Original()
		}

		_, err = m.store.Save(ctx, m.key, items, cur.Version)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return false, err
		}
		m.state = stateRolledBack
		return true, nil
	}
	return false, ErrVersionConflict
}

func sameWindow(a, b models.Appointment) bool {
	return a.StartTime.Equal(b.StartTime) && a.EndTime.Equal(b.EndTime)
}
