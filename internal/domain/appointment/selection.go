package appointment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ServiceSelection é o serviço de um agendamento: ou um serviço do catálogo
// (Predefined) ou um serviço avulso (Custom). Nunca os dois.
type ServiceSelection interface {
	isServiceSelection()
}

type Predefined struct {
	ServiceID uint
}

type Custom struct {
	Name        string
	Description string
	Value       decimal.Decimal
}

func (Predefined) isServiceSelection() {}
func (Custom) isServiceSelection()     {}

func ValidateSelection(sel ServiceSelection) error {
	switch s := sel.(type) {
	case Predefined:
		if s.ServiceID == 0 {
			return apperr.Validation("service_required", "Selecione um serviço.")
		}
	case Custom:
		if strings.TrimSpace(s.Name) == "" {
			return apperr.Validation("custom_name_required", "Informe o nome do serviço personalizado.")
		}
		if s.Value.IsNegative() {
			return apperr.Validation("invalid_custom_value", "Valor do serviço não pode ser negativo.")
		}
	default:
		return apperr.Validation("service_required", "Selecione um serviço.")
	}
	return nil
}

// SelectionOf lê a seleção a partir das colunas persistidas.
func SelectionOf(ap *models.Appointment) (ServiceSelection, error) {
	hasCustom := ap.CustomValue != nil || ap.CustomName != ""

	switch {
	case ap.ServiceID != nil && hasCustom:
		return nil, apperr.Validation("ambiguous_service", "Agendamento com serviço do catálogo e personalizado ao mesmo tempo.")
	case ap.ServiceID != nil:
		return Predefined{ServiceID: *ap.ServiceID}, nil
	case hasCustom:
		value := decimal.Zero
		if ap.CustomValue != nil {
			value = *ap.CustomValue
		}
		return Custom{
			Name:        ap.CustomName,
			Description: ap.CustomDescription,
			Value:       value,
		}, nil
	default:
		return nil, apperr.Validation("service_required", "Agendamento sem serviço.")
	}
}

// ApplySelection grava a seleção nas colunas, limpando a outra variante.
func ApplySelection(ap *models.Appointment, sel ServiceSelection) {
	switch s := sel.(type) {
	case Predefined:
		id := s.ServiceID
		ap.ServiceID = &id
		ap.CustomName = ""
		ap.CustomDescription = ""
		ap.CustomValue = nil
	case Custom:
		v := s.Value
		ap.ServiceID = nil
		ap.Service = nil
		ap.CustomName = strings.TrimSpace(s.Name)
		ap.CustomDescription = s.Description
		ap.CustomValue = &v
	}
}
