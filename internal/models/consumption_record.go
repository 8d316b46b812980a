package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registro imutável do material gasto em um atendimento concluído.
type ConsumptionRecord struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	AppointmentID uint `gorm:"index;not null" json:"appointment_id"`
	MaterialID    uint `gorm:"index;not null" json:"material_id"`

	MaterialName string          `gorm:"size:100" json:"material_name"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	CreatedAt time.Time `json:"created_at"`
}
