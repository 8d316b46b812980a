package appointment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
)

type RevenueSummary struct {
	Day       string          `json:"day"`
	Revenue   decimal.Decimal `json:"revenue"`
	Completed int             `json:"completed"`
	ByStatus  map[string]int  `json:"by_status"`
}

// DailyRevenue soma o faturamento dos atendimentos concluídos de um dia no
// fuso do estabelecimento. O resultado fica em cache até a próxima mudança.
type DailyRevenue struct {
	remote  domain.Remote
	effects *Effects
}

func NewDailyRevenue(remote domain.Remote, effects *Effects) *DailyRevenue {
	return &DailyRevenue{remote: remote, effects: effects}
}

func (uc *DailyRevenue) Execute(ctx context.Context, day time.Time, loc *time.Location) (*RevenueSummary, error) {
	businessID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	from, to := timezone.DayBounds(day, loc)
	key := cache.RevenueKey(businessID, from)

	if uc.effects.Cache != nil {
		var cached RevenueSummary
		found, err := uc.effects.Cache.LoadAggregate(ctx, key, &cached)
		if err == nil && found {
			return &cached, nil
		}
	}

	items, err := uc.remote.ListAppointments(ctx, domain.ListFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	sum := &RevenueSummary{
		Day:      from.Format("2006-01-02"),
		Revenue:  decimal.Zero,
		ByStatus: make(map[string]int),
	}
	for _, ap := range items {
		sum.ByStatus[ap.Status]++
		if ap.Status == string(domain.StatusCompleted) {
			sum.Completed++
			sum.Revenue = sum.Revenue.Add(ap.FinalValue)
		}
	}
	sum.Revenue = sum.Revenue.Round(2)

	if uc.effects.Cache != nil {
		if err := uc.effects.Cache.SaveAggregate(ctx, key, sum); err != nil {
			uc.effects.Logger.Warn().Err(err).Msg("revenue cache write failed")
		}
	}
	return sum, nil
}
