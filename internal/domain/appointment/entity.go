package appointment

import (
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Transition muda o status respeitando a tabela de transições.
// Em caso de erro o agendamento não é alterado.
func Transition(ap *models.Appointment, to Status, now time.Time) error {
	if err := CheckTransition(Status(ap.Status), to); err != nil {
		return err
	}

	ap.Status = string(to)
	switch to {
	case StatusCanceled:
		ap.CanceledAt = &now
	case StatusCompleted:
		ap.CompletedAt = &now
	}
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	return Transition(ap, StatusCanceled, now)
}

func Complete(ap *models.Appointment, now time.Time) error {
	return Transition(ap, StatusCompleted, now)
}

// Reactivate: único caminho de no_show para confirmed.
func Reactivate(ap *models.Appointment, now time.Time) error {
	if Status(ap.Status) != StatusNoShow {
		return &apperr.InvalidTransitionError{From: ap.Status, To: string(StatusConfirmed)}
	}
	return Transition(ap, StatusConfirmed, now)
}

// ===============================
// Edit
// ===============================

func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("invalid_date_or_time", "Data ou hora inválida.")
	}
	if !end.After(start) {
		return apperr.Validation("end_before_start", "O horário de término deve ser depois do início.")
	}
	return nil
}

// Reschedule move o agendamento para [start, end).
func Reschedule(ap *models.Appointment, start, end time.Time) error {
	if err := CanEdit(Status(ap.Status)); err != nil {
		return err
	}
	if err := ValidateWindow(start, end); err != nil {
		return err
	}
	ap.StartTime = start
	ap.EndTime = end
	return nil
}

// PreserveDuration calcula o novo término quando só o início mudou.
func PreserveDuration(ap *models.Appointment, newStart time.Time) time.Time {
	return newStart.Add(ap.EndTime.Sub(ap.StartTime))
}

func ApplyPrice(ap *models.Appointment, b pricing.Breakdown) {
	ap.BaseValue = b.Base
	ap.DiscountValue = b.Discount
	ap.FinalValue = b.Final
}

// ===============================
// Rating
// ===============================

func Rate(ap *models.Appointment, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return apperr.Validation("invalid_rating", "A avaliação deve ser de 1 a 5.")
	}
	ap.Rating = &rating
	ap.RatingComment = comment
	return nil
}
