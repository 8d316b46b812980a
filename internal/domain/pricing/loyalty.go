package pricing

import (
	"context"

	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// RedemptionKeepsBooking is the product decision for a failed redemption
// after a successful booking: the booking stays and the caller is told the
// reward was not redeemed.
const RedemptionKeepsBooking = true

type RewardAvailability struct {
	Reward     models.LoyaltyReward `json:"reward"`
	Redeemable bool                 `json:"redeemable"`
	Shortfall  int                  `json:"shortfall"`
}

// Evaluate flags which rewards a balance can pay for.
func Evaluate(balance int, rewards []models.LoyaltyReward) []RewardAvailability {
	out := make([]RewardAvailability, 0, len(rewards))
	for _, r := range rewards {
		shortfall := r.PointsRequired - balance
		if shortfall < 0 {
			shortfall = 0
		}
		out = append(out, RewardAvailability{
			Reward:     r,
			Redeemable: r.Active && shortfall == 0,
			Shortfall:  shortfall,
		})
	}
	return out
}

// Find returns the availability entry for rewardID.
func Find(list []RewardAvailability, rewardID uint) (RewardAvailability, bool) {
	for _, a := range list {
		if a.Reward.ID == rewardID {
			return a, true
		}
	}
	return RewardAvailability{}, false
}

// RewardSource lists the reward candidates for a client.
type RewardSource interface {
	ListAvailableRewards(ctx context.Context, clientID uint) ([]RewardAvailability, error)
}

// Resolver is advisory: it never blocks a selection by itself.
type Resolver struct {
	source RewardSource
}

func NewResolver(source RewardSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve re-evaluates the remote candidates against the given balance.
func (r *Resolver) Resolve(ctx context.Context, clientID uint, balance int) ([]RewardAvailability, error) {
	candidates, err := r.source.ListAvailableRewards(ctx, clientID)
	if err != nil {
		return nil, err
	}

	rewards := make([]models.LoyaltyReward, 0, len(candidates))
	for _, c := range candidates {
		rewards = append(rewards, c.Reward)
	}
	return Evaluate(balance, rewards), nil
}
