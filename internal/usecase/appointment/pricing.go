package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// baseFor devolve o preço base da seleção: o preço do serviço do catálogo ou
// o valor do serviço personalizado. O serviço volta junto quando existe.
func baseFor(ctx context.Context, remote domain.Remote, sel domain.ServiceSelection) (decimal.Decimal, *models.Service, error) {
	if err := domain.ValidateSelection(sel); err != nil {
		return decimal.Zero, nil, err
	}

	switch s := sel.(type) {
	case domain.Predefined:
		svc, err := remote.GetService(ctx, s.ServiceID)
		if err != nil {
			return decimal.Zero, nil, err
		}
		if !svc.Active {
			return decimal.Zero, nil, apperr.Validation("service_inactive", "Serviço inativo.")
		}
		return svc.Price, svc, nil
	case domain.Custom:
		return s.Value, nil, nil
	}
	return decimal.Zero, nil, apperr.Validation("service_required", "Selecione um serviço.")
}

// endFor completa o término quando só o início veio: usa a duração do
// serviço do catálogo.
func endFor(start time.Time, end *time.Time, svc *models.Service) (time.Time, error) {
	if end != nil {
		return *end, nil
	}
	if svc == nil || svc.DurationMin <= 0 {
		return time.Time{}, apperr.Validation("end_required", "Informe o horário de término.")
	}
	return start.Add(time.Duration(svc.DurationMin) * time.Minute), nil
}

// redeemableReward exige que a recompensa esteja disponível para o saldo
// atual do cliente.
func redeemableReward(
	ctx context.Context,
	resolver *pricing.Resolver,
	client *models.Client,
	rewardID uint,
) (*models.LoyaltyReward, error) {

	list, err := resolver.Resolve(ctx, client.ID, client.Points)
	if err != nil {
		return nil, err
	}

	a, ok := pricing.Find(list, rewardID)
	if !ok || !a.Redeemable {
		msg := "Recompensa indisponível para este cliente."
		if ok && a.Shortfall > 0 {
			msg = fmt.Sprintf("Faltam %d pontos para esta recompensa.", a.Shortfall)
		}
		return nil, apperr.Validation("reward_not_redeemable", msg)
	}

	reward := a.Reward
	return &reward, nil
}
