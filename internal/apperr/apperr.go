// Package apperr holds the typed failures a user gesture can end with.
//
// Every error here carries a stable code (BusinessCode) that the HTTP layer
// turns into an {error_code, message} body. None of them is fatal: the caller
// renders the message and the appointment stays as the remote service last
// confirmed it.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Coded is implemented by every error of the taxonomy.
type Coded interface {
	error
	BusinessCode() string
}

// ======================================================
// LIFECYCLE
// ======================================================

// InvalidTransitionError: the requested status is not reachable from the
// current one.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) BusinessCode() string { return "invalid_transition" }

// ImmutableStateError: edit attempted on a terminal or no-show appointment.
type ImmutableStateError struct {
	Status string
}

func (e *ImmutableStateError) Error() string {
	return fmt.Sprintf("appointment is %s and cannot be edited", e.Status)
}

func (e *ImmutableStateError) BusinessCode() string { return "immutable_state" }

// ======================================================
// STOCK
// ======================================================

type InsufficientStockError struct {
	MaterialID uint
	Material   string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for %s: available %s, requested %s",
		e.Material, e.Available.String(), e.Requested.String(),
	)
}

func (e *InsufficientStockError) BusinessCode() string { return "insufficient_stock" }

// ConsumptionRecordedError: os materiais já foram baixados do estoque mas a
// conclusão falhou. Repetir com os mesmos materiais baixaria de novo.
type ConsumptionRecordedError struct {
	AppointmentID uint
	Records       int
	Err           error
}

func (e *ConsumptionRecordedError) Error() string {
	return fmt.Sprintf(
		"appointment %d: %d consumption records saved but completion failed: %v",
		e.AppointmentID, e.Records, e.Err,
	)
}

func (e *ConsumptionRecordedError) Unwrap() error { return e.Err }

func (e *ConsumptionRecordedError) BusinessCode() string { return "consumption_recorded" }

// ======================================================
// REMOTE
// ======================================================

// ValidationError is a payload the remote service (or a local precondition)
// refused. Message is shown to the user verbatim.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *ValidationError) BusinessCode() string {
	if e.Code == "" {
		return "validation_failed"
	}
	return e.Code
}

func Validation(code, message string) error {
	return &ValidationError{Code: code, Message: message}
}

// NetworkError covers transport failures, timeouts and 5xx answers alike.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) BusinessCode() string { return "network_error" }

func Network(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// ======================================================
// HELPERS
// ======================================================

// CodeOf returns the business code of err when it belongs to the taxonomy.
func CodeOf(err error) (string, bool) {
	var c Coded
	if errors.As(err, &c) {
		return c.BusinessCode(), true
	}
	return "", false
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
