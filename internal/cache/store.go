// Package cache holds the appointment collections the calendar renders from.
//
// Collections are versioned. Writers use compare-and-set on the version, so an
// optimistic mutation can tell whether anyone else wrote the same key between
// its apply and its rollback.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

var (
	ErrVersionConflict = errors.New("cache: version conflict")
	ErrNotCached       = errors.New("cache: key not cached")
	ErrNotInView       = errors.New("cache: appointment not in cached view")
)

const (
	AppointmentsPrefix = "appointments:"
	RevenuePrefix      = "revenue:"
)

type Key string

// AppointmentsKey identifies the collection of one calendar view.
func AppointmentsKey(businessID uint, from, to time.Time) Key {
	return Key(fmt.Sprintf("%s%d:%s:%s",
		AppointmentsPrefix, businessID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	))
}

// RevenueKey identifies a cached daily revenue aggregate.
func RevenueKey(businessID uint, day time.Time) Key {
	return Key(fmt.Sprintf("%s%d:%s", RevenuePrefix, businessID, day.Format("2006-01-02")))
}

func BusinessPrefix(prefix string, businessID uint) string {
	return fmt.Sprintf("%s%d:", prefix, businessID)
}

// ViewWindow reads back the [from, to) a collection key was built with.
func ViewWindow(key Key) (from, to time.Time, ok bool) {
	rest, found := strings.CutPrefix(string(key), AppointmentsPrefix)
	if !found {
		return time.Time{}, time.Time{}, false
	}
	_, rest, found = strings.Cut(rest, ":")
	if !found {
		return time.Time{}, time.Time{}, false
	}

	// ambos em UTC sem fração: tamanho fixo
	n := len("2006-01-02T15:04:05Z")
	if len(rest) != 2*n+1 || rest[n] != ':' {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.RFC3339, rest[:n])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(time.RFC3339, rest[n+1:])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Entry is a cached collection. Version 0 with Found=false means absent.
type Entry struct {
	Items   []models.Appointment `json:"items"`
	Version uint64               `json:"version"`
	Found   bool                 `json:"-"`
}

// Store is the shared, injectable appointment cache.
type Store interface {
	Load(ctx context.Context, key Key) (Entry, error)

	// Save writes items if the stored version still equals expected and
	// returns the new version. ErrVersionConflict otherwise.
	Save(ctx context.Context, key Key, items []models.Appointment, expected uint64) (uint64, error)

	LoadAggregate(ctx context.Context, key Key, out any) (bool, error)
	SaveAggregate(ctx context.Context, key Key, v any) error

	DeletePrefix(ctx context.Context, prefix string) error

	// Keys lists the live keys under prefix, collections and aggregates.
	Keys(ctx context.Context, prefix string) ([]Key, error)
	DeleteKeys(ctx context.Context, keys ...Key) error
}

// Put stores a freshly fetched collection regardless of what was there.
func Put(ctx context.Context, s Store, key Key, items []models.Appointment) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := s.Load(ctx, key)
		if err != nil {
			return err
		}
		if _, err := s.Save(ctx, key, items, cur.Version); err == nil {
			return nil
		} else if !errors.Is(err, ErrVersionConflict) {
			return err
		}
	}
	return ErrVersionConflict
}

// InvalidateBusiness drops every collection and aggregate of a business.
func InvalidateBusiness(ctx context.Context, s Store, businessID uint) error {
	if err := s.DeletePrefix(ctx, BusinessPrefix(AppointmentsPrefix, businessID)); err != nil {
		return err
	}
	return InvalidateAggregates(ctx, s, businessID)
}

func InvalidateAggregates(ctx context.Context, s Store, businessID uint) error {
	return s.DeletePrefix(ctx, BusinessPrefix(RevenuePrefix, businessID))
}

// InvalidateViewsExcept drops every collection of a business but keep. Other
// views may now miss or still show an appointment that moved.
func InvalidateViewsExcept(ctx context.Context, s Store, businessID uint, keep Key) error {
	keys, err := s.Keys(ctx, BusinessPrefix(AppointmentsPrefix, businessID))
	if err != nil {
		return err
	}

	stale := keys[:0]
	for _, k := range keys {
		if k != keep {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.DeleteKeys(ctx, stale...)
}

// EvictOutside removes ap from the collection at key when ap no longer
// overlaps the view window. A key that keeps losing the race is dropped.
func EvictOutside(ctx context.Context, s Store, key Key, ap models.Appointment) error {
	from, to, ok := ViewWindow(key)
	if !ok {
		return nil
	}
	if ap.StartTime.Before(to) && ap.EndTime.After(from) {
		return nil
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := s.Load(ctx, key)
		if err != nil {
			return err
		}
		i := indexOf(cur.Items, ap.ID)
		if !cur.Found || i < 0 {
			return nil
		}

		items := make([]models.Appointment, 0, len(cur.Items)-1)
		items = append(items, cur.Items[:i]...)
		items = append(items, cur.Items[i+1:]...)

		if _, err := s.Save(ctx, key, items, cur.Version); err == nil {
			return nil
		} else if !errors.Is(err, ErrVersionConflict) {
			return err
		}
	}
	return s.DeleteKeys(ctx, key)
}

func cloneItems(items []models.Appointment) []models.Appointment {
	if items == nil {
		return nil
	}
	out := make([]models.Appointment, len(items))
	copy(out, items)
	return out
}

func indexOf(items []models.Appointment, id uint) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
