package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ChangeAppointmentStatus é o gesto genérico de troca de status. Cancelar,
// concluir e reativar têm casos de uso próprios; aqui eles são despachados
// para o caminho certo.
type ChangeAppointmentStatus struct {
	remote  domain.Remote
	effects *Effects
}

func NewChangeAppointmentStatus(remote domain.Remote, effects *Effects) *ChangeAppointmentStatus {
	return &ChangeAppointmentStatus{remote: remote, effects: effects}
}

func (uc *ChangeAppointmentStatus) Execute(
	ctx context.Context,
	appointmentID uint,
	to domain.Status,
) (*models.Appointment, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	current, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	from := domain.Status(current.Status)

	// checagem local antes de qualquer chamada remota
	candidate := *current
	if from == domain.StatusNoShow && to == domain.StatusConfirmed {
		err = domain.Reactivate(&candidate, uc.effects.now())
	} else {
		err = domain.Transition(&candidate, to, uc.effects.now())
	}
	if err != nil {
		uc.effects.Metrics.ObserveTransition(string(from), string(to), outcome(err))
		return nil, err
	}

	updated, err := uc.remote.UpdateStatus(ctx, appointmentID, to)
	uc.effects.Metrics.ObserveTransition(string(from), string(to), outcome(err))
	if err != nil {
		return nil, err
	}

	uc.effects.committed(ctx, businessID, userID, "appointment."+string(to), appointmentID, map[string]any{
		"from": from,
		"to":   to,
	})
	return updated, nil
}

// ======================================================
// REACTIVATE
// ======================================================

// ReactivateAppointment traz um no_show de volta para confirmed.
type ReactivateAppointment struct {
	remote  domain.Remote
	effects *Effects
}

func NewReactivateAppointment(remote domain.Remote, effects *Effects) *ReactivateAppointment {
	return &ReactivateAppointment{remote: remote, effects: effects}
}

func (uc *ReactivateAppointment) Execute(ctx context.Context, appointmentID uint) (*models.Appointment, error) {
	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	current, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	candidate := *current
	if err := domain.Reactivate(&candidate, uc.effects.now()); err != nil {
		uc.effects.Metrics.ObserveTransition(current.Status, string(domain.StatusConfirmed), outcome(err))
		return nil, err
	}

	updated, err := uc.remote.UpdateStatus(ctx, appointmentID, domain.StatusConfirmed)
	uc.effects.Metrics.ObserveTransition(current.Status, string(domain.StatusConfirmed), outcome(err))
	if err != nil {
		return nil, err
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.reactivated", appointmentID, nil)
	return updated, nil
}
