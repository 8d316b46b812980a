package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BusinessID uint `gorm:"index" json:"business_id"`

	ClientID uint   `json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client"`

	// nil = serviço personalizado (Custom*)
	ServiceID *uint    `json:"service_id"`
	Service   *Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service,omitempty"`

	CustomName        string           `gorm:"size:100" json:"custom_name,omitempty"`
	CustomDescription string           `gorm:"size:255" json:"custom_description,omitempty"`
	CustomValue       *decimal.Decimal `gorm:"type:decimal(10,2)" json:"custom_value,omitempty"`

	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'scheduled'" json:"status"`

	BaseValue     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_value"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_value"`
	FinalValue    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"final_value"`
	RewardID      *uint           `json:"reward_id,omitempty"`

	Notes string `gorm:"size:255" json:"notes"`

	Rating        *int   `json:"rating,omitempty"`
	RatingComment string `gorm:"size:255" json:"rating_comment,omitempty"`

	CanceledAt  *time.Time `json:"canceled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration devolve a duração agendada.
func (a Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}
