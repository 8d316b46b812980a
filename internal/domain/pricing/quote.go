package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// Quote is the price of a booking form being filled in. Every setter
// recomputes the discount, so a discount never outlives the base or reward
// it was computed from.
type Quote struct {
	base           decimal.Decimal
	reward         *models.LoyaltyReward
	manualDiscount decimal.Decimal
	breakdown      Breakdown
}

func NewQuote() *Quote {
	q := &Quote{}
	q.recompute()
	return q
}

func (q *Quote) SetBase(base decimal.Decimal) *Quote {
	if base.IsNegative() {
		base = decimal.Zero
	}
	q.base = base
	q.recompute()
	return q
}

// SetReward selects (or, with nil, clears) the reward. A reward replaces any
// manual discount.
func (q *Quote) SetReward(r *models.LoyaltyReward) *Quote {
	q.reward = r
	if r != nil {
		q.manualDiscount = decimal.Zero
	}
	q.recompute()
	return q
}

// SetManualDiscount clears the selected reward.
func (q *Quote) SetManualDiscount(d decimal.Decimal) *Quote {
	if d.IsNegative() {
		d = decimal.Zero
	}
	q.manualDiscount = d
	q.reward = nil
	q.recompute()
	return q
}

func (q *Quote) Reward() *models.LoyaltyReward { return q.reward }

func (q *Quote) Breakdown() Breakdown { return q.breakdown }

func (q *Quote) recompute() {
	discount := q.manualDiscount
	if q.reward != nil {
		discount = ComputeDiscountFromReward(q.reward, q.base)
	}

	base := Round(q.base)
	discount = ClampDiscount(discount, base)
	q.breakdown = Breakdown{
		Base:     base,
		Discount: discount,
		Final:    ComputeFinal(base, discount),
	}
}
