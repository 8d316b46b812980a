package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/optimistic"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

func dayItems() []models.Appointment {
	a := *withStatus(1, domain.StatusCompleted)
	a.FinalValue = decimal.RequireFromString("72.50")
	b := *withStatus(2, domain.StatusCompleted)
	b.FinalValue = decimal.NewFromInt(100)
	c := *withStatus(3, domain.StatusCanceled)
	c.FinalValue = decimal.NewFromInt(999)
	d := *scheduled(4)
	return []models.Appointment{a, b, c, d}
}

func TestListAppointments_CacheThrough(t *testing.T) {
	env := newEnv()
	ctx := testCtx()
	from, to := at(0, 0), at(0, 0).AddDate(0, 0, 1)

	env.remote.On("ListAppointments", ctx, domain.ListFilter{From: from, To: to}).
		Return(dayItems(), nil).Once()

	uc := NewListAppointments(env.remote, env.effects)

	items, key, err := uc.Execute(ctx, from, to, nil)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, cache.AppointmentsKey(testBusiness, from, to), key)

	// segunda leitura vem do cache, já com filtro
	items, _, err = uc.Execute(ctx, from, to, []domain.Status{domain.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	env.remote.AssertNumberOfCalls(t, "ListAppointments", 1)
}

func TestListAppointments_RemoteError(t *testing.T) {
	env := newEnv()
	ctx := testCtx()
	env.remote.On("ListAppointments", ctx, mock.Anything).
		Return(nil, apperr.Network("list", errors.New("down")))

	_, _, err := NewListAppointments(env.remote, env.effects).Execute(ctx, at(0, 0), at(23, 0), nil)
	assert.True(t, apperr.IsNetwork(err))
}

func TestDailyRevenue_SumsCompletedAndCaches(t *testing.T) {
	env := newEnv()
	ctx := testCtx()

	env.remote.On("ListAppointments", ctx, mock.Anything).Return(dayItems(), nil).Once()

	uc := NewDailyRevenue(env.remote, env.effects)

	sum, err := uc.Execute(ctx, at(15, 0), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", sum.Day)
	assert.Equal(t, 2, sum.Completed)
	assert.True(t, sum.Revenue.Equal(decimal.RequireFromString("172.50")), sum.Revenue.String())
	assert.Equal(t, map[string]int{"completed": 2, "canceled": 1, "scheduled": 1}, sum.ByStatus)

	again, err := uc.Execute(ctx, at(9, 0), time.UTC)
	require.NoError(t, err)
	assert.True(t, again.Revenue.Equal(sum.Revenue))
	env.remote.AssertNumberOfCalls(t, "ListAppointments", 1)
}

func TestDailyRevenue_InvalidatedByTransition(t *testing.T) {
	env := newEnv()
	ctx := testCtx()

	env.remote.On("ListAppointments", ctx, mock.Anything).Return(dayItems(), nil).Twice()
	env.remote.On("GetAppointment", ctx, uint(4)).Return(scheduled(4), nil)
	env.remote.On("CancelAppointment", ctx, uint(4)).Return(nil)

	revenue := NewDailyRevenue(env.remote, env.effects)
	_, err := revenue.Execute(ctx, at(12, 0), time.UTC)
	require.NoError(t, err)

	_, err = NewCancelAppointment(env.remote, env.effects).Execute(ctx, 4)
	require.NoError(t, err)

	_, err = revenue.Execute(ctx, at(12, 0), time.UTC)
	require.NoError(t, err)
	env.remote.AssertNumberOfCalls(t, "ListAppointments", 2)
}

func TestListRewards(t *testing.T) {
	env := newEnv()
	ctx := testCtx()

	cheap := percentReward(50)
	cheap.ID = 1
	pricey := percentReward(500)
	pricey.ID = 2

	env.remote.On("GetClient", ctx, uint(11)).Return(&models.Client{ID: 11, Points: 120}, nil)
	env.remote.On("ListAvailableRewards", ctx, uint(11)).
		Return([]pricing.RewardAvailability{{Reward: cheap}, {Reward: pricey}}, nil)

	res, err := NewListRewards(env.remote).Execute(ctx, 11)

	require.NoError(t, err)
	assert.Equal(t, 120, res.Balance)
	require.Len(t, res.Rewards, 2)
	assert.True(t, res.Rewards[0].Redeemable)
	assert.False(t, res.Rewards[1].Redeemable)
	assert.Equal(t, 380, res.Rewards[1].Shortfall)
}

func TestQuotePrice(t *testing.T) {
	t.Run("manual discount", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetService", ctx, uint(5)).Return(haircut(), nil)

		res, err := NewQuotePrice(env.remote).Execute(ctx, QuoteInput{
			Selection:      domain.Predefined{ServiceID: 5},
			ManualDiscount: decimal.NewFromInt(100),
		})

		require.NoError(t, err)
		assert.True(t, res.Price.Discount.Equal(decimal.NewFromInt(80)))
		assert.True(t, res.Price.Final.IsZero())
		assert.Nil(t, res.Reward)
	})

	t.Run("reward quoted even when not redeemable", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetClient", ctx, uint(11)).Return(&models.Client{ID: 11, Points: 10}, nil)
		env.remote.On("ListAvailableRewards", ctx, uint(11)).
			Return([]pricing.RewardAvailability{{Reward: percentReward(100)}}, nil)

		res, err := NewQuotePrice(env.remote).Execute(ctx, QuoteInput{
			ClientID:  11,
			Selection: domain.Custom{Name: "Retoque", Value: decimal.NewFromInt(150)},
			RewardID:  ptrUint(9),
		})

		require.NoError(t, err)
		assert.True(t, res.Price.Discount.Equal(decimal.NewFromInt(15)))
		require.NotNil(t, res.Reward)
		assert.False(t, res.Reward.Redeemable)
		assert.Equal(t, 90, res.Reward.Shortfall)
	})

	t.Run("unknown reward", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetClient", ctx, uint(11)).Return(&models.Client{ID: 11}, nil)
		env.remote.On("ListAvailableRewards", ctx, uint(11)).Return([]pricing.RewardAvailability{}, nil)

		_, err := NewQuotePrice(env.remote).Execute(ctx, QuoteInput{
			ClientID:  11,
			Selection: domain.Custom{Name: "Retoque", Value: decimal.NewFromInt(150)},
			RewardID:  ptrUint(9),
		})

		code, _ := apperr.CodeOf(err)
		assert.Equal(t, "reward_not_found", code)
	})
}

func TestRescheduleOnCalendar(t *testing.T) {
	t.Run("move is audited", func(t *testing.T) {
		env := newEnv()
		view := env.seedView(*scheduled(1))
		ctx := tenancy.WithRequestID(testCtx(), "req-42")

		env.remote.On("UpdateAppointment", ctx, uint(1), mock.Anything).
			Return(&models.Appointment{ID: 1, StartTime: at(14, 0), EndTime: at(15, 0)}, nil)

		coord := optimistic.NewCoordinator(env.store, env.remote, nil, env.effects.Logger)
		ap, err := NewRescheduleOnCalendar(coord, env.effects).Execute(ctx, view, 1, at(14, 0), nil)
		coord.Wait()

		require.NoError(t, err)
		assert.Equal(t, at(15, 0), ap.EndTime)
		assert.Equal(t, []string{"appointment.move"}, env.auditor.actions())
		assert.Equal(t, "req-42", env.auditor.events[0].RequestID)

		entry, _ := env.store.Load(ctx, view)
		require.True(t, entry.Found)
		assert.Equal(t, at(14, 0), entry.Items[0].StartTime)
	})

	t.Run("refused resize rolls back", func(t *testing.T) {
		env := newEnv()
		view := env.seedView(*scheduled(1))
		ctx := testCtx()

		env.remote.On("UpdateAppointment", ctx, uint(1), mock.Anything).
			Return(nil, apperr.Validation("time_conflict", "Horário indisponível."))

		coord := optimistic.NewCoordinator(env.store, env.remote, nil, env.effects.Logger)
		_, err := NewRescheduleOnCalendar(coord, env.effects).Execute(ctx, view, 1, at(10, 0), ptrTime(at(12, 0)))

		require.Error(t, err)
		assert.Empty(t, env.auditor.actions())

		entry, _ := env.store.Load(ctx, view)
		require.True(t, entry.Found)
		assert.Equal(t, *scheduled(1), entry.Items[0])
	})
}
