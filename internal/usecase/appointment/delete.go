package appointment

import (
	"context"
	"fmt"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
)

type DeleteAppointment struct {
	remote  domain.Remote
	effects *Effects
}

func NewDeleteAppointment(remote domain.Remote, effects *Effects) *DeleteAppointment {
	return &DeleteAppointment{remote: remote, effects: effects}
}

// RequiredConfirmation diz qual confirmação a tela deve pedir.
func (uc *DeleteAppointment) RequiredConfirmation(ctx context.Context, appointmentID uint) (domain.Confirmation, error) {
	ap, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		return domain.ConfirmNone, err
	}
	return domain.DeleteConfirmation(domain.Status(ap.Status)), nil
}

// Execute apaga o agendamento se a confirmação dada cobre a exigida.
func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	appointmentID uint,
	given domain.Confirmation,
) error {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return err
	}

	ap, err := uc.remote.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	required := domain.DeleteConfirmation(domain.Status(ap.Status))
	if given < required {
		return apperr.Validation("confirmation_required", fmt.Sprintf(
			"Confirme a exclusão (confirmação %s).", confirmationLabel(required),
		))
	}

	if err := uc.remote.DeleteAppointment(ctx, appointmentID); err != nil {
		return err
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.deleted", appointmentID, map[string]any{
		"status":       ap.Status,
		"start":        ap.StartTime,
		"final_value":  ap.FinalValue,
		"confirmation": given.String(),
		"deleted_at":   uc.effects.now(),
	})
	return nil
}

func confirmationLabel(c domain.Confirmation) string {
	if c == domain.ConfirmEscalated {
		return "reforçada"
	}
	return "simples"
}
