package appointment

import (
	"context"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/archive"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

const WarningRatingNotSaved = "rating_not_saved"

type CompleteAppointmentInput struct {
	ID      uint
	Rating  *int
	Comment string

	// Materials vazio conclui sem registro de consumo.
	Materials []ledger.Item
}

type CompleteAppointmentResult struct {
	Appointment *models.Appointment        `json:"appointment"`
	Consumption []models.ConsumptionRecord `json:"consumption,omitempty"`
	Warning     string                     `json:"warning,omitempty"`
}

type CompleteAppointment struct {
	remote  domain.Remote
	ledgers *Ledgers
	effects *Effects
}

func NewCompleteAppointment(
	remote domain.Remote,
	ledgers *Ledgers,
	effects *Effects,
) *CompleteAppointment {
	return &CompleteAppointment{
		remote:  remote,
		ledgers: ledgers,
		effects: effects,
	}
}

// Execute conclui o atendimento. Com materiais, o consumo é registrado
// primeiro e o status só muda se o registro deu certo.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	in CompleteAppointmentInput,
) (*CompleteAppointmentResult, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	ap, err := uc.remote.GetAppointment(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	from := ap.Status

	// --------------------------------------------------
	// Validações locais
	// --------------------------------------------------
	candidate := *ap
	if err := domain.Complete(&candidate, uc.effects.now()); err != nil {
		uc.effects.Metrics.ObserveTransition(from, string(domain.StatusCompleted), outcome(err))
		return nil, err
	}
	if in.Rating != nil {
		if err := domain.Rate(&candidate, *in.Rating, in.Comment); err != nil {
			return nil, err
		}
	}

	// --------------------------------------------------
	// Materiais
	// --------------------------------------------------
	var records []models.ConsumptionRecord
	if len(in.Materials) > 0 {
		l, err := uc.ledgers.For(ctx, businessID)
		if err != nil {
			return nil, err
		}
		records, err = l.Record(ctx, in.ID, in.Materials)
		if err != nil {
			return nil, err
		}
		uc.effects.Metrics.AddConsumedCost(ledger.TotalCost(records).InexactFloat64())
	}

	// --------------------------------------------------
	// Status
	// --------------------------------------------------
	updated, err := uc.remote.UpdateStatus(ctx, in.ID, domain.StatusCompleted)
	uc.effects.Metrics.ObserveTransition(from, string(domain.StatusCompleted), outcome(err))
	if err != nil {
		if len(records) > 0 {
			uc.effects.Logger.Error().Err(err).
				Uint("appointment_id", in.ID).
				Int("records", len(records)).
				Msg("consumption recorded but completion failed")
			return nil, &apperr.ConsumptionRecordedError{
				AppointmentID: in.ID,
				Records:       len(records),
				Err:           err,
			}
		}
		return nil, err
	}

	res := &CompleteAppointmentResult{Appointment: updated, Consumption: records}

	if in.Rating != nil {
		comment := in.Comment
		rated, err := uc.remote.UpdateAppointment(ctx, in.ID, domain.UpdateData{
			Rating:  in.Rating,
			Comment: &comment,
		})
		if err != nil {
			uc.effects.Logger.Warn().Err(err).Uint("appointment_id", in.ID).Msg("rating not saved")
			res.Warning = WarningRatingNotSaved
		} else {
			res.Appointment = rated
		}
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.completed", in.ID, map[string]any{
		"from":          from,
		"material_cost": ledger.TotalCost(records),
		"completed_at":  candidate.CompletedAt,
	})

	uc.archive(ctx, res.Appointment, records)
	return res, nil
}

// archive é best-effort: falha só vai para o log.
func (uc *CompleteAppointment) archive(ctx context.Context, ap *models.Appointment, records []models.ConsumptionRecord) {
	if uc.effects.Receipts == nil || ap == nil {
		return
	}
	if _, err := uc.effects.Receipts.Archive(ctx, archive.NewReceipt(ap, records)); err != nil {
		uc.effects.Logger.Warn().Err(err).Uint("appointment_id", ap.ID).Msg("receipt not archived")
	}
}
