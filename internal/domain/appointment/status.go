package appointment

import "github.com/BruksfildServices01/studio-agenda/internal/apperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusNoShow    Status = "no_show"
)

// transitions é a única fonte de verdade sobre mudanças de status.
// no_show -> confirmed só acontece pela ação de reativar.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCompleted, StatusCanceled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCanceled, StatusNoShow},
	StatusNoShow:    {StatusConfirmed},
	StatusCompleted: nil,
	StatusCanceled:  nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal: nenhuma transição de status a partir daqui.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// AllStatuses em ordem estável (usado por telas e testes).
func AllStatuses() []Status {
	return []Status{
		StatusScheduled,
		StatusConfirmed,
		StatusCompleted,
		StatusCanceled,
		StatusNoShow,
	}
}

// ===============================
// Validations
// ===============================

func AllowedTransitions(from Status) []Status {
	allowed := transitions[from]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition devolve InvalidTransitionError quando from -> to não existe.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &apperr.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// CanEdit define se reagendar / reprecificar / mudar observações é permitido
func CanEdit(current Status) error {
	if current != StatusScheduled && current != StatusConfirmed {
		return &apperr.ImmutableStateError{Status: string(current)}
	}
	return nil
}

// InitialStatus valida status inicial
func InitialStatus() Status {
	return StatusScheduled
}

// ===============================
// Delete confirmation
// ===============================

type Confirmation int

const (
	ConfirmNone Confirmation = iota
	ConfirmStandard
	ConfirmEscalated
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmStandard:
		return "standard"
	case ConfirmEscalated:
		return "escalated"
	default:
		return "none"
	}
}

func ParseConfirmation(s string) Confirmation {
	switch s {
	case "standard":
		return ConfirmStandard
	case "escalated":
		return ConfirmEscalated
	default:
		return ConfirmNone
	}
}

// DeleteConfirmation: apagar um agendamento ativo perde dados sem volta,
// então exige a confirmação reforçada.
func DeleteConfirmation(current Status) Confirmation {
	if current == StatusCanceled || current == StatusNoShow {
		return ConfirmStandard
	}
	return ConfirmEscalated
}
