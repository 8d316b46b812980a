package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida aceitas para materiais de consumo.
const (
	UnitMilliliter = "ml"
	UnitCount      = "un"
	UnitGram       = "g"
)

type Material struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	BusinessID uint `gorm:"index" json:"business_id"`

	Name      string          `gorm:"size:100;not null" json:"name"`
	Unit      string          `gorm:"size:5;not null" json:"unit"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost"`
	Stock     decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock"`
	MinStock  decimal.Decimal `gorm:"type:decimal(12,3);default:0" json:"min_stock"`
	Active    bool            `gorm:"default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
