package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RewardKind string

const (
	RewardPercentage  RewardKind = "percentage"
	RewardFixed       RewardKind = "fixed"
	RewardFreeService RewardKind = "free_service"
	RewardProduct     RewardKind = "product"
)

type LoyaltyReward struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	BusinessID uint `gorm:"index" json:"business_id"`

	Name           string          `gorm:"size:100;not null" json:"name"`
	Description    string          `gorm:"size:255" json:"description"`
	PointsRequired int             `gorm:"not null" json:"points_required"`
	Kind           RewardKind      `gorm:"size:20;not null" json:"kind"`
	Magnitude      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"magnitude"`
	Active         bool            `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resgate feito junto com um agendamento.
type RewardRedemption struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ClientID      uint      `gorm:"index;not null" json:"client_id"`
	RewardID      uint      `gorm:"index;not null" json:"reward_id"`
	AppointmentID *uint     `json:"appointment_id"`
	PointsSpent   int       `json:"points_spent"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}
