package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

type AppointmentListDTO struct {
	ID          uint            `json:"id"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Status      string          `json:"status"`
	ClientID    uint            `json:"client_id"`
	ClientName  string          `json:"client_name"`
	ServiceName string          `json:"service_name"`
	Custom      bool            `json:"custom"`
	Color       string          `json:"color,omitempty"`
	FinalValue  decimal.Decimal `json:"final_value"`
	Notes       string          `json:"notes,omitempty"`
}

// FromAppointment achata o agendamento para a grade do calendário.
func FromAppointment(ap models.Appointment) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:         ap.ID,
		StartTime:  ap.StartTime,
		EndTime:    ap.EndTime,
		Status:     ap.Status,
		ClientID:   ap.ClientID,
		ClientName: ap.Client.Name,
		FinalValue: ap.FinalValue,
		Notes:      ap.Notes,
	}

	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
		out.Color = ap.Service.Color
	} else {
		out.ServiceName = ap.CustomName
		out.Custom = true
	}
	return out
}

func FromAppointments(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, FromAppointment(ap))
	}
	return out
}
