// Package pricing computes what the client pays for an appointment.
//
// All amounts are decimals rounded to cents. Nothing here does I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Breakdown keeps Discount <= Base and Final = max(0, Base - Discount).
type Breakdown struct {
	Base     decimal.Decimal `json:"base"`
	Discount decimal.Decimal `json:"discount"`
	Final    decimal.Decimal `json:"final"`
}

func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ComputeFinal returns max(0, base - discount).
func ComputeFinal(base, discount decimal.Decimal) decimal.Decimal {
	final := base.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return Round(final)
}

// ClampDiscount keeps a discount inside [0, base].
func ClampDiscount(discount, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() || discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(base) {
		return Round(base)
	}
	return Round(discount)
}

// ComputeDiscountFromReward translates a reward into money off base.
// A zero base always yields zero.
func ComputeDiscountFromReward(reward *models.LoyaltyReward, base decimal.Decimal) decimal.Decimal {
	if reward == nil || !base.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch reward.Kind {
	case models.RewardPercentage:
		d = base.Mul(reward.Magnitude).Div(hundred)
	case models.RewardFixed:
		d = reward.Magnitude
	case models.RewardFreeService:
		d = base
	default:
		// produto físico: entregue fora do sistema
		d = decimal.Zero
	}

	return ClampDiscount(d, base)
}

// Price builds a Breakdown from a base and a discount amount.
func Price(base, discount decimal.Decimal) (Breakdown, error) {
	if base.IsNegative() {
		return Breakdown{}, apperr.Validation("invalid_base_value", "Valor do serviço não pode ser negativo.")
	}
	if discount.IsNegative() {
		return Breakdown{}, apperr.Validation("invalid_discount", "Desconto não pode ser negativo.")
	}

	base = Round(base)
	discount = ClampDiscount(discount, base)

	return Breakdown{
		Base:     base,
		Discount: discount,
		Final:    ComputeFinal(base, discount),
	}, nil
}
