package appointment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// EditAppointmentInput: campos nil não mudam. Start sem End mantém a duração.
type EditAppointmentInput struct {
	ID uint

	Start *time.Time
	End   *time.Time
	Notes *string

	Selection      domain.ServiceSelection
	ManualDiscount *decimal.Decimal
}

type EditAppointment struct {
	remote  domain.Remote
	effects *Effects
}

func NewEditAppointment(remote domain.Remote, effects *Effects) *EditAppointment {
	return &EditAppointment{remote: remote, effects: effects}
}

func (uc *EditAppointment) Execute(
	ctx context.Context,
	in EditAppointmentInput,
) (*models.Appointment, error) {

	businessID, userID, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	current, err := uc.remote.GetAppointment(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanEdit(domain.Status(current.Status)); err != nil {
		return nil, err
	}

	data := domain.UpdateData{Notes: in.Notes}

	// --------------------------------------------------
	// Horário
	// --------------------------------------------------
	if in.Start != nil || in.End != nil {
		start, end := current.StartTime, current.EndTime
		if in.Start != nil {
			start = *in.Start
			end = domain.PreserveDuration(current, start)
		}
		if in.End != nil {
			end = *in.End
		}
		if err := domain.ValidateWindow(start, end); err != nil {
			return nil, err
		}
		data.StartTime, data.EndTime = &start, &end
	}

	// --------------------------------------------------
	// Serviço / preço
	// --------------------------------------------------
	if in.Selection != nil || in.ManualDiscount != nil {
		price, err := uc.reprice(ctx, current, in)
		if err != nil {
			return nil, err
		}
		data.Selection = in.Selection
		data.Price = &price
	}

	updated, err := uc.remote.UpdateAppointment(ctx, in.ID, data)
	if err != nil {
		return nil, err
	}

	uc.effects.committed(ctx, businessID, userID, "appointment.updated", in.ID, nil)
	return updated, nil
}

// reprice recalcula o desconto sobre a base nova. Uma recompensa já
// resgatada continua valendo e é reaplicada, mesmo que tenha saído do
// catálogo; senão vale o desconto manual informado ou o atual.
func (uc *EditAppointment) reprice(
	ctx context.Context,
	current *models.Appointment,
	in EditAppointmentInput,
) (pricing.Breakdown, error) {

	base := current.BaseValue
	if in.Selection != nil {
		b, _, err := baseFor(ctx, uc.remote, in.Selection)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		base = b
	}

	quote := pricing.NewQuote().SetBase(base)

	if current.RewardID != nil && in.ManualDiscount == nil {
		list, err := uc.remote.ListAvailableRewards(ctx, current.ClientID)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		reward, err := uc.bookedReward(ctx, list, *current.RewardID)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		quote.SetReward(reward)
		return quote.Breakdown(), nil
	}

	discount := current.DiscountValue
	if in.ManualDiscount != nil {
		discount = *in.ManualDiscount
	}
	if _, err := pricing.Price(base, discount); err != nil {
		return pricing.Breakdown{}, err
	}
	quote.SetManualDiscount(discount)
	return quote.Breakdown(), nil
}

// bookedReward acha a recompensa do agendamento. Fora da lista de
// disponíveis (desativada, por exemplo) ela é buscada pelo id; sem ela não
// há como recalcular o desconto, e o ajuste é recusado.
func (uc *EditAppointment) bookedReward(
	ctx context.Context,
	list []pricing.RewardAvailability,
	rewardID uint,
) (*models.LoyaltyReward, error) {

	if a, ok := pricing.Find(list, rewardID); ok {
		reward := a.Reward
		return &reward, nil
	}

	reward, err := uc.remote.GetReward(ctx, rewardID)
	if err != nil {
		if apperr.IsNetwork(err) {
			return nil, err
		}
		return nil, apperr.Validation("reward_unavailable",
			"A recompensa deste agendamento não está mais disponível; informe o desconto manualmente.")
	}
	return reward, nil
}
