package appointment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type CreateAppointmentInput struct {
	ClientID  uint
	Selection domain.ServiceSelection

	Start time.Time
	End   *time.Time // nil: duração do serviço

	Notes string

	RewardID       *uint
	ManualDiscount decimal.Decimal
}

const WarningRewardNotRedeemed = "reward_not_redeemed"

type CreateAppointmentResult struct {
	Appointment    *models.Appointment `json:"appointment"`
	RewardRedeemed bool                `json:"reward_redeemed"`
	Warning        string              `json:"warning,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	remote   domain.Remote
	resolver *pricing.Resolver
	effects  *Effects
}

func NewCreateAppointment(remote domain.Remote, effects *Effects) *CreateAppointment {
	return &CreateAppointment{
		remote:   remote,
		resolver: pricing.NewResolver(remote),
		effects:  effects,
	}
}

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*CreateAppointmentResult, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Serviço e horário
	// --------------------------------------------------
	base, svc, err := baseFor(ctx, uc.remote, in.Selection)
	if err != nil {
		return nil, err
	}

	end, err := endFor(in.Start, in.End, svc)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateWindow(in.Start, end); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Preço
	// --------------------------------------------------
	quote := pricing.NewQuote().SetBase(base)

	var reward *models.LoyaltyReward
	if in.RewardID != nil {
		client, err := uc.remote.GetClient(ctx, in.ClientID)
		if err != nil {
			return nil, err
		}
		reward, err = redeemableReward(ctx, uc.resolver, client, *in.RewardID)
		if err != nil {
			return nil, err
		}
		quote.SetReward(reward)
	} else {
		if _, err := pricing.Price(base, in.ManualDiscount); err != nil {
			return nil, err
		}
		quote.SetManualDiscount(in.ManualDiscount)
	}

	// --------------------------------------------------
	// Criação
	// --------------------------------------------------
	ap := &models.Appointment{
		BusinessID: businessID,
		ClientID:   in.ClientID,
		StartTime:  in.Start,
		EndTime:    end,
		Status:     string(domain.InitialStatus()),
		Notes:      in.Notes,
		RewardID:   in.RewardID,
	}
	domain.ApplySelection(ap, in.Selection)
	domain.ApplyPrice(ap, quote.Breakdown())

	created, err := uc.remote.CreateAppointment(ctx, ap)
	if err != nil {
		return nil, err
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.created", created.ID, map[string]any{
		"start":       created.StartTime,
		"final_value": created.FinalValue,
	})

	res := &CreateAppointmentResult{Appointment: created}
	if reward == nil {
		return res, nil
	}

	// --------------------------------------------------
	// Resgate: segundo efeito, independente
	// --------------------------------------------------
	if err := uc.remote.RedeemReward(ctx, in.ClientID, reward.ID, reward.PointsRequired); err != nil {
		uc.effects.Metrics.ObserveRedemption("failed")
		uc.effects.Logger.Warn().Err(err).
			Uint("appointment_id", created.ID).
			Uint("reward_id", reward.ID).
			Msg("reward redemption failed, booking kept")

		if !pricing.RedemptionKeepsBooking {
			return nil, err
		}
		res.Warning = WarningRewardNotRedeemed
		return res, nil
	}

	uc.effects.Metrics.ObserveRedemption("ok")
	uc.effects.committed(ctx, businessID, userID, "reward.redeemed", created.ID, map[string]any{
		"reward_id": reward.ID,
		"points":    reward.PointsRequired,
	})
	res.RewardRedeemed = true
	return res, nil
}
