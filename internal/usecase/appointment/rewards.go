package appointment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
)

// ======================================================
// REWARD AVAILABILITY
// ======================================================

type RewardsResult struct {
	ClientID uint                         `json:"client_id"`
	Balance  int                          `json:"balance"`
	Rewards  []pricing.RewardAvailability `json:"rewards"`
}

type ListRewards struct {
	remote   domain.Remote
	resolver *pricing.Resolver
}

func NewListRewards(remote domain.Remote) *ListRewards {
	return &ListRewards{remote: remote, resolver: pricing.NewResolver(remote)}
}

func (uc *ListRewards) Execute(ctx context.Context, clientID uint) (*RewardsResult, error) {
	if _, _, err := scope(ctx); err != nil {
		return nil, err
	}

	client, err := uc.remote.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	list, err := uc.resolver.Resolve(ctx, clientID, client.Points)
	if err != nil {
		return nil, err
	}

	return &RewardsResult{ClientID: clientID, Balance: client.Points, Rewards: list}, nil
}

// ======================================================
// QUOTE
// ======================================================

type QuoteInput struct {
	ClientID       uint
	Selection      domain.ServiceSelection
	RewardID       *uint
	ManualDiscount decimal.Decimal
}

type QuoteResult struct {
	Price  pricing.Breakdown           `json:"price"`
	Reward *pricing.RewardAvailability `json:"reward,omitempty"`
}

// QuotePrice calcula o preço do formulário de agendamento sem gravar nada.
// Uma recompensa fora do saldo ainda é cotada, marcada como não resgatável.
type QuotePrice struct {
	remote   domain.Remote
	resolver *pricing.Resolver
}

func NewQuotePrice(remote domain.Remote) *QuotePrice {
	return &QuotePrice{remote: remote, resolver: pricing.NewResolver(remote)}
}

func (uc *QuotePrice) Execute(ctx context.Context, in QuoteInput) (*QuoteResult, error) {
	if _, _, err := scope(ctx); err != nil {
		return nil, err
	}

	base, _, err := baseFor(ctx, uc.remote, in.Selection)
	if err != nil {
		return nil, err
	}

	quote := pricing.NewQuote().SetBase(base)
	res := &QuoteResult{}

	if in.RewardID != nil {
		client, err := uc.remote.GetClient(ctx, in.ClientID)
		if err != nil {
			return nil, err
		}
		list, err := uc.resolver.Resolve(ctx, in.ClientID, client.Points)
		if err != nil {
			return nil, err
		}
		a, ok := pricing.Find(list, *in.RewardID)
		if !ok {
			return nil, errRewardNotFound()
		}
		reward := a.Reward
		quote.SetReward(&reward)
		res.Reward = &a
	} else {
		if _, err := pricing.Price(base, in.ManualDiscount); err != nil {
			return nil, err
		}
		quote.SetManualDiscount(in.ManualDiscount)
	}

	res.Price = quote.Breakdown()
	return res, nil
}

func errRewardNotFound() error {
	return apperr.Validation("reward_not_found", "Recompensa não encontrada.")
}
