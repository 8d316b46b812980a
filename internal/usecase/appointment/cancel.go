package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

type CancelAppointment struct {
	remote  domain.Remote
	effects *Effects
}

func NewCancelAppointment(
	remote domain.Remote,
	effects *Effects,
) *CancelAppointment {
	return &CancelAppointment{
		remote:  remote,
		effects: effects,
	}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	appointmentID uint,
) (*models.Appointment, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	ap, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	from := ap.Status

	if err := domain.Cancel(ap, uc.effects.now()); err != nil {
		uc.effects.Metrics.ObserveTransition(from, string(domain.StatusCanceled), outcome(err))
		return nil, err
	}

	err = uc.remote.CancelAppointment(ctx, appointmentID)
	uc.effects.Metrics.ObserveTransition(from, string(domain.StatusCanceled), outcome(err))
	if err != nil {
		return nil, err
	}

	// devolve o registro que o remoto confirmou; sem ele, a versão local
	confirmed, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		uc.effects.Logger.Warn().Err(err).Uint("appointment_id", appointmentID).Msg("refetch after cancel failed")
		confirmed = ap
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.canceled", appointmentID, map[string]any{
		"from":        from,
		"canceled_at": confirmed.CanceledAt,
	})

	return confirmed, nil
}
