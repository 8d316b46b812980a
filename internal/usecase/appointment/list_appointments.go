package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ListAppointments devolve a visão do calendário em [From, To), lida do
// cache quando existe. É essa coleção que o arrastar altera de forma
// otimista.
type ListAppointments struct {
	remote  domain.Remote
	effects *Effects
}

func NewListAppointments(remote domain.Remote, effects *Effects) *ListAppointments {
	return &ListAppointments{remote: remote, effects: effects}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	from, to time.Time,
	statuses []domain.Status,
) ([]models.Appointment, cache.Key, error) {

	businessID, _, err := scope(ctx)
	if err != nil {
		return nil, "", err
	}

	key := cache.AppointmentsKey(businessID, from, to)
	items, err := uc.load(ctx, key, from, to)
	if err != nil {
		return nil, "", err
	}

	return filterStatus(items, statuses), key, nil
}

func (uc *ListAppointments) load(ctx context.Context, key cache.Key, from, to time.Time) ([]models.Appointment, error) {
	if uc.effects.Cache != nil {
		entry, err := uc.effects.Cache.Load(ctx, key)
		if err == nil && entry.Found {
			return entry.Items, nil
		}
		if err != nil {
			uc.effects.Logger.Warn().Err(err).Msg("cache read failed, falling back to remote")
		}
	}

	items, err := uc.remote.ListAppointments(ctx, domain.ListFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	if uc.effects.Cache != nil {
		if err := cache.Put(ctx, uc.effects.Cache, key, items); err != nil {
			uc.effects.Logger.Warn().Err(err).Msg("cache write failed")
		}
	}
	return items, nil
}

func filterStatus(items []models.Appointment, statuses []domain.Status) []models.Appointment {
	if len(statuses) == 0 {
		return items
	}

	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[string(s)] = true
	}

	out := make([]models.Appointment, 0, len(items))
	for _, ap := range items {
		if allowed[ap.Status] {
			out = append(out, ap)
		}
	}
	return out
}
