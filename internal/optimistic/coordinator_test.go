package optimistic

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

type mockUpdater struct {
	mock.Mock
}

func (m *mockUpdater) UpdateAppointment(ctx context.Context, id uint, data appointment.UpdateData) (*models.Appointment, error) {
	args := m.Called(ctx, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fixture struct {
	store  *cache.MemoryStore
	remote *mockUpdater
	coord  *Coordinator
	view   cache.Key
}

func setup(t *testing.T, status string) fixture {
	t.Helper()
	ctx := context.Background()

	store := cache.NewMemoryStore()
	view := cache.AppointmentsKey(7, day, day.Add(24*time.Hour))
	require.NoError(t, cache.Put(ctx, store, view, []models.Appointment{
		{ID: 1, BusinessID: 7, Status: status, StartTime: at(10, 0), EndTime: at(11, 0)},
		{ID: 2, BusinessID: 7, Status: "scheduled", StartTime: at(13, 0), EndTime: at(13, 30)},
	}))
	require.NoError(t, store.SaveAggregate(ctx, cache.RevenueKey(7, day), map[string]int{"count": 2}))

	remote := &mockUpdater{}
	m := metrics.New(prometheus.NewRegistry())
	return fixture{
		store:  store,
		remote: remote,
		coord:  NewCoordinator(store, remote, m, zerolog.New(io.Discard)),
		view:   view,
	}
}

func (f fixture) cached(t *testing.T, id uint) models.Appointment {
	t.Helper()
	e, err := f.store.Load(context.Background(), f.view)
	require.NoError(t, err)
	for _, ap := range e.Items {
		if ap.ID == id {
			return ap
		}
	}
	t.Fatalf("appointment %d not cached", id)
	return models.Appointment{}
}

func windowIs(start, end time.Time) interface{} {
	return mock.MatchedBy(func(d appointment.UpdateData) bool {
		return d.StartTime != nil && d.EndTime != nil &&
			d.StartTime.Equal(start) && d.EndTime.Equal(end)
	})
}

func TestMovePreservesDuration(t *testing.T) {
	f := setup(t, "scheduled")
	f.remote.On("UpdateAppointment", mock.Anything, uint(1), windowIs(at(10, 30), at(11, 30))).
		Return(&models.Appointment{ID: 1, StartTime: at(10, 30), EndTime: at(11, 30)}, nil)

	got, err := f.coord.Move(context.Background(), 7, f.view, 1, at(10, 30))
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(at(11, 30)))

	ap := f.cached(t, 1)
	assert.True(t, ap.StartTime.Equal(at(10, 30)))
	assert.True(t, ap.EndTime.Equal(at(11, 30)))

	f.coord.Wait()
	ok, _ := f.store.LoadAggregate(context.Background(), cache.RevenueKey(7, day), &map[string]int{})
	assert.False(t, ok, "aggregates are dropped after a confirmed move")
	f.remote.AssertExpectations(t)
}

func TestMoveDropsOtherViewsOfBusiness(t *testing.T) {
	f := setup(t, "scheduled")
	ctx := context.Background()

	week := cache.AppointmentsKey(7, day, day.AddDate(0, 0, 7))
	tomorrow := cache.AppointmentsKey(7, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	elsewhere := cache.AppointmentsKey(8, day, day.Add(24*time.Hour))
	for _, k := range []cache.Key{week, tomorrow, elsewhere} {
		require.NoError(t, cache.Put(ctx, f.store, k, []models.Appointment{
			{ID: 1, BusinessID: 7, Status: "scheduled", StartTime: at(10, 0), EndTime: at(11, 0)},
		}))
	}

	f.remote.On("UpdateAppointment", mock.Anything, uint(1), mock.Anything).
		Return(&models.Appointment{ID: 1, StartTime: at(15, 0), EndTime: at(16, 0)}, nil)

	_, err := f.coord.Move(ctx, 7, f.view, 1, at(15, 0))
	require.NoError(t, err)
	f.coord.Wait()

	assert.True(t, f.cached(t, 1).StartTime.Equal(at(15, 0)))

	e, _ := f.store.Load(ctx, week)
	assert.False(t, e.Found, "week view still shows 10:00")
	e, _ = f.store.Load(ctx, tomorrow)
	assert.False(t, e.Found)
	e, _ = f.store.Load(ctx, elsewhere)
	assert.True(t, e.Found, "other business untouched")
}

func TestMoveOutOfWindowLeavesDraggedView(t *testing.T) {
	f := setup(t, "scheduled")
	ctx := context.Background()

	tomorrow := cache.AppointmentsKey(7, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	require.NoError(t, cache.Put(ctx, f.store, tomorrow, nil))

	// amanhã às 10:00
	f.remote.On("UpdateAppointment", mock.Anything, uint(1), windowIs(at(34, 0), at(35, 0))).
		Return(&models.Appointment{ID: 1, StartTime: at(34, 0), EndTime: at(35, 0)}, nil)

	_, err := f.coord.Move(ctx, 7, f.view, 1, at(34, 0))
	require.NoError(t, err)

	e, err := f.store.Load(ctx, f.view)
	require.NoError(t, err)
	require.True(t, e.Found, "the dragged view is kept, only the item leaves")
	require.Len(t, e.Items, 1)
	assert.Equal(t, uint(2), e.Items[0].ID)

	f.coord.Wait()
	e, _ = f.store.Load(ctx, tomorrow)
	assert.False(t, e.Found, "tomorrow must refetch to show the moved appointment")
}

func TestMoveRolledBackWhenRemoteRefuses(t *testing.T) {
	f := setup(t, "scheduled")
	f.remote.On("UpdateAppointment", mock.Anything, uint(1), mock.Anything).
		Return(nil, apperr.Validation("slot_taken", "Horário indisponível."))

	_, err := f.coord.Resize(context.Background(), 7, f.view, 1, at(14, 0), at(15, 0))
	require.Error(t, err)
	assert.Equal(t, "Horário indisponível.", err.Error())

	ap := f.cached(t, 1)
	assert.True(t, ap.StartTime.Equal(at(10, 0)))
	assert.True(t, ap.EndTime.Equal(at(11, 0)))

	ok, _ := f.store.LoadAggregate(context.Background(), cache.RevenueKey(7, day), &map[string]int{})
	assert.True(t, ok, "aggregates stay when nothing changed")
}

func TestNetworkFailureRollsBack(t *testing.T) {
	f := setup(t, "confirmed")
	f.remote.On("UpdateAppointment", mock.Anything, uint(1), mock.Anything).
		Return(nil, apperr.Network("update_appointment", errors.New("timeout")))

	_, err := f.coord.Move(context.Background(), 7, f.view, 1, at(16, 0))
	assert.True(t, apperr.IsNetwork(err))
	assert.True(t, f.cached(t, 1).StartTime.Equal(at(10, 0)))
}

func TestLocalValidationNeverReachesRemote(t *testing.T) {
	cases := []struct {
		name   string
		status string
		start  time.Time
		end    time.Time
		code   string
	}{
		{"end before start", "scheduled", at(15, 0), at(14, 0), "end_before_start"},
		{"completed is immutable", "completed", at(14, 0), at(15, 0), "immutable_state"},
		{"no show is immutable", "no_show", at(14, 0), at(15, 0), "immutable_state"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, tc.status)

			_, err := f.coord.Resize(context.Background(), 7, f.view, 1, tc.start, tc.end)
			code, ok := apperr.CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, code)

			f.remote.AssertNotCalled(t, "UpdateAppointment", mock.Anything, mock.Anything, mock.Anything)
			assert.True(t, f.cached(t, 1).StartTime.Equal(at(10, 0)))
		})
	}
}

func TestAppointmentOutsideView(t *testing.T) {
	f := setup(t, "scheduled")

	_, err := f.coord.Move(context.Background(), 7, f.view, 42, at(9, 0))
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "appointment_not_in_view", code)
}

func TestConcurrentGesturesOnDifferentAppointments(t *testing.T) {
	f := setup(t, "scheduled")
	ctx := context.Background()

	f.remote.On("UpdateAppointment", mock.Anything, uint(2), mock.Anything).
		Return(&models.Appointment{ID: 2, StartTime: at(17, 0), EndTime: at(17, 30)}, nil)

	// a falha de 1 chega depois do sucesso de 2
	f.remote.On("UpdateAppointment", mock.Anything, uint(1), mock.Anything).
		Run(func(mock.Arguments) {
			_, err := f.coord.Move(ctx, 7, f.view, 2, at(17, 0))
			require.NoError(t, err)
		}).
		Return(nil, apperr.Validation("slot_taken", "Horário indisponível."))

	_, err := f.coord.Move(ctx, 7, f.view, 1, at(14, 0))
	require.Error(t, err)

	assert.True(t, f.cached(t, 1).StartTime.Equal(at(10, 0)))
	assert.True(t, f.cached(t, 2).StartTime.Equal(at(17, 0)))
	f.coord.Wait()
}
