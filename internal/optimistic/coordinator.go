// Package optimistic applies calendar drags and resizes to the cached view
// before the remote service confirms them, and undoes them when it refuses.
package optimistic

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

const invalidateTimeout = 5 * time.Second

type Kind string

const (
	KindMove   Kind = "move"
	KindResize Kind = "resize"
)

// Updater is the slice of the remote service a drag needs.
type Updater interface {
	UpdateAppointment(ctx context.Context, id uint, data appointment.UpdateData) (*models.Appointment, error)
}

// Request describes one gesture on one cached calendar view. A nil End
// keeps the current duration.
type Request struct {
	Kind          Kind
	BusinessID    uint
	View          cache.Key
	AppointmentID uint
	Start         time.Time
	End           *time.Time
}

type Coordinator struct {
	store   cache.Store
	remote  Updater
	metrics *metrics.Metrics
	logger  zerolog.Logger

	wg sync.WaitGroup
}

func NewCoordinator(store cache.Store, remote Updater, m *metrics.Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		remote:  remote,
		metrics: m,
		logger:  logger.With().Str("component", "optimistic").Logger(),
	}
}

// Move drags the appointment to newStart keeping its duration.
func (c *Coordinator) Move(ctx context.Context, businessID uint, view cache.Key, id uint, newStart time.Time) (*models.Appointment, error) {
	return c.Execute(ctx, Request{
		Kind:          KindMove,
		BusinessID:    businessID,
		View:          view,
		AppointmentID: id,
		Start:         newStart,
	})
}

// Resize changes both ends of the appointment.
func (c *Coordinator) Resize(ctx context.Context, businessID uint, view cache.Key, id uint, start, end time.Time) (*models.Appointment, error) {
	return c.Execute(ctx, Request{
		Kind:          KindResize,
		BusinessID:    businessID,
		View:          view,
		AppointmentID: id,
		Start:         start,
		End:           &end,
	})
}

// Execute runs begin -> apply -> remote update -> commit or rollback.
// The returned error is always the one that ended the gesture; a failed
// rollback is only logged.
func (c *Coordinator) Execute(ctx context.Context, req Request) (*models.Appointment, error) {
	log := c.logger.With().
		Str("mutation_id", uuid.NewString()).
		Str("kind", string(req.Kind)).
		Uint("appointment_id", req.AppointmentID).
		Logger()

	m, err := cache.Begin(ctx, c.store, req.View, req.AppointmentID)
	if err != nil {
		c.metrics.ObserveOptimistic(string(req.Kind), "rejected")
		if errors.Is(err, cache.ErrNotCached) || errors.Is(err, cache.ErrNotInView) {
			return nil, apperr.Validation("appointment_not_in_view", "Agendamento fora da visão atual do calendário.")
		}
		return nil, err
	}

	original := m.Original()
	start := req.Start
	end := appointment.PreserveDuration(&original, start)
	if req.End != nil {
		end = *req.End
	}

	// validação local antes de tocar no cache
	candidate := original
	if err := appointment.Reschedule(&candidate, start, end); err != nil {
		_, _ = m.Rollback(ctx)
		c.metrics.ObserveOptimistic(string(req.Kind), "rejected")
		return nil, err
	}

	if err := m.Apply(ctx, func(ap *models.Appointment) {
		ap.StartTime = start
		ap.EndTime = end
	}); err != nil {
		c.metrics.ObserveOptimistic(string(req.Kind), "rejected")
		return nil, err
	}

	updated, err := c.remote.UpdateAppointment(ctx, req.AppointmentID, appointment.UpdateData{
		StartTime: &start,
		EndTime:   &end,
	})
	if err != nil {
		restored, rbErr := m.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil {
			log.Error().Err(rbErr).Msg("optimistic rollback failed")
		}
		log.Warn().Err(err).Bool("restored", restored).Msg("remote refused reschedule")
		c.metrics.ObserveOptimistic(string(req.Kind), "rolled_back")
		return nil, err
	}

	m.Commit()
	c.metrics.ObserveOptimistic(string(req.Kind), "committed")

	if updated == nil {
		candidate.StartTime, candidate.EndTime = start, end
		updated = &candidate
	}

	// arrastado para fora da janela: sai da visão antes de responder
	placed := *updated
	placed.ID = req.AppointmentID
	if placed.StartTime.IsZero() {
		placed.StartTime, placed.EndTime = start, end
	}
	if err := cache.EvictOutside(context.WithoutCancel(ctx), c.store, req.View, placed); err != nil {
		log.Error().Err(err).Msg("evict from view")
	}
	c.invalidateOthers(ctx, req, log)

	return updated, nil
}

// invalidateOthers drops the business's other views and its derived totals
// without holding up the caller. req.View already reflects the gesture.
func (c *Coordinator) invalidateOthers(ctx context.Context, req Request, log zerolog.Logger) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
		defer cancel()

		if err := cache.InvalidateViewsExcept(bg, c.store, req.BusinessID, req.View); err != nil {
			log.Error().Err(err).Msg("invalidate other views")
		}
		if err := cache.InvalidateAggregates(bg, c.store, req.BusinessID); err != nil {
			log.Error().Err(err).Msg("invalidate aggregates")
		}
	}()
}

// Wait blocks until background invalidations finished. Used on shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
