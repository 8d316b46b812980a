package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/optimistic"
)

// RescheduleOnCalendar é o arrastar/redimensionar do calendário. A visão em
// cache muda na hora e volta ao estado anterior se o remoto recusar.
type RescheduleOnCalendar struct {
	coordinator *optimistic.Coordinator
	effects     *Effects
}

func NewRescheduleOnCalendar(coordinator *optimistic.Coordinator, effects *Effects) *RescheduleOnCalendar {
	return &RescheduleOnCalendar{coordinator: coordinator, effects: effects}
}

// Execute move o agendamento quando end é nil (mantém a duração) e
// redimensiona quando vem.
func (uc *RescheduleOnCalendar) Execute(
	ctx context.Context,
	view cache.Key,
	appointmentID uint,
	start time.Time,
	end *time.Time,
) (*models.Appointment, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	kind := optimistic.KindMove
	if end != nil {
		kind = optimistic.KindResize
	}

	updated, err := uc.coordinator.Execute(ctx, optimistic.Request{
		Kind:          kind,
		BusinessID:    businessID,
		View:          view,
		AppointmentID: appointmentID,
		Start:         start,
		End:           end,
	})
	if err != nil {
		return nil, err
	}

	// a visão já tem o valor novo; só a auditoria fica pendente
	uc.effects.record(ctx, businessID, userID, "appointment."+string(kind), appointmentID, map[string]any{
		"start": updated.StartTime,
		"end":   updated.EndTime,
	})
	return updated, nil
}
