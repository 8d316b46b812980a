package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

func withStatus(id uint, st domain.Status) *models.Appointment {
	ap := scheduled(id)
	ap.Status = string(st)
	return ap
}

func TestChangeStatus_Allowed(t *testing.T) {
	env := newEnv()
	view := env.seedView(*scheduled(1))
	ctx := testCtx()

	env.remote.On("GetAppointment", ctx, uint(1)).Return(scheduled(1), nil)
	env.remote.On("UpdateStatus", ctx, uint(1), domain.StatusConfirmed).
		Return(withStatus(1, domain.StatusConfirmed), nil)

	ap, err := NewChangeAppointmentStatus(env.remote, env.effects).Execute(ctx, 1, domain.StatusConfirmed)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.False(t, env.viewCached(view))
	assert.Equal(t, []string{"appointment.confirmed"}, env.auditor.actions())
}

func TestChangeStatus_InvalidTransitionSkipsRemote(t *testing.T) {
	env := newEnv()
	view := env.seedView(*scheduled(1))
	ctx := testCtx()

	env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, domain.StatusCompleted), nil)

	_, err := NewChangeAppointmentStatus(env.remote, env.effects).Execute(ctx, 1, domain.StatusScheduled)

	var te *apperr.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "completed", te.From)
	assert.True(t, env.viewCached(view))
	env.remote.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_NoShowToConfirmedIsReactivation(t *testing.T) {
	env := newEnv()
	ctx := testCtx()

	env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, domain.StatusNoShow), nil)
	env.remote.On("UpdateStatus", ctx, uint(1), domain.StatusConfirmed).
		Return(withStatus(1, domain.StatusConfirmed), nil)

	_, err := NewChangeAppointmentStatus(env.remote, env.effects).Execute(ctx, 1, domain.StatusConfirmed)
	require.NoError(t, err)
}

func TestChangeStatus_RemoteErrorKeepsCache(t *testing.T) {
	env := newEnv()
	view := env.seedView(*scheduled(1))
	ctx := testCtx()

	env.remote.On("GetAppointment", ctx, uint(1)).Return(scheduled(1), nil)
	env.remote.On("UpdateStatus", ctx, uint(1), domain.StatusNoShow).
		Return(nil, apperr.Network("status", errors.New("reset")))

	_, err := NewChangeAppointmentStatus(env.remote, env.effects).Execute(ctx, 1, domain.StatusNoShow)

	assert.True(t, apperr.IsNetwork(err))
	assert.True(t, env.viewCached(view))
	assert.Empty(t, env.auditor.actions())
}

func TestReactivate(t *testing.T) {
	t.Run("no_show", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, domain.StatusNoShow), nil)
		env.remote.On("UpdateStatus", ctx, uint(1), domain.StatusConfirmed).
			Return(withStatus(1, domain.StatusConfirmed), nil)

		ap, err := NewReactivateAppointment(env.remote, env.effects).Execute(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "confirmed", ap.Status)
		assert.Equal(t, []string{"appointment.reactivated"}, env.auditor.actions())
	})

	t.Run("only from no_show", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, domain.StatusCanceled), nil)

		_, err := NewReactivateAppointment(env.remote, env.effects).Execute(ctx, 1)

		var te *apperr.InvalidTransitionError
		require.ErrorAs(t, err, &te)
		env.remote.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCancelAppointment(t *testing.T) {
	t.Run("returns the confirmed record", func(t *testing.T) {
		env := newEnv()
		view := env.seedView(*scheduled(1))
		ctx := testCtx()

		remoteAt := fixedNow.Add(2 * time.Second)
		confirmed := withStatus(1, domain.StatusCanceled)
		confirmed.CanceledAt = &remoteAt

		env.remote.On("GetAppointment", ctx, uint(1)).Return(scheduled(1), nil).Once()
		env.remote.On("CancelAppointment", ctx, uint(1)).Return(nil)
		env.remote.On("GetAppointment", ctx, uint(1)).Return(confirmed, nil).Once()

		ap, err := NewCancelAppointment(env.remote, env.effects).Execute(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "canceled", ap.Status)
		require.NotNil(t, ap.CanceledAt)
		assert.Equal(t, remoteAt, *ap.CanceledAt)
		assert.False(t, env.viewCached(view))
		env.remote.AssertNumberOfCalls(t, "GetAppointment", 2)
	})

	t.Run("failed refetch keeps the local stamp", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()

		env.remote.On("GetAppointment", ctx, uint(1)).Return(scheduled(1), nil).Once()
		env.remote.On("CancelAppointment", ctx, uint(1)).Return(nil)
		env.remote.On("GetAppointment", ctx, uint(1)).
			Return(nil, apperr.Network("get_appointment", errors.New("timeout"))).Once()

		ap, err := NewCancelAppointment(env.remote, env.effects).Execute(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "canceled", ap.Status)
		require.NotNil(t, ap.CanceledAt)
		assert.Equal(t, fixedNow, *ap.CanceledAt)
	})

	t.Run("already canceled", func(t *testing.T) {
		env := newEnv()
		ctx := testCtx()
		env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, domain.StatusCanceled), nil)

		_, err := NewCancelAppointment(env.remote, env.effects).Execute(ctx, 1)

		var te *apperr.InvalidTransitionError
		require.ErrorAs(t, err, &te)
		env.remote.AssertNotCalled(t, "CancelAppointment", mock.Anything, mock.Anything)
	})
}

func TestDeleteAppointment_Confirmation(t *testing.T) {
	cases := []struct {
		status   domain.Status
		given    domain.Confirmation
		required domain.Confirmation
		allowed  bool
	}{
		{domain.StatusScheduled, domain.ConfirmStandard, domain.ConfirmEscalated, false},
		{domain.StatusScheduled, domain.ConfirmEscalated, domain.ConfirmEscalated, true},
		{domain.StatusScheduled, domain.ConfirmNone, domain.ConfirmEscalated, false},
		{domain.StatusCompleted, domain.ConfirmEscalated, domain.ConfirmEscalated, true},
		{domain.StatusCanceled, domain.ConfirmStandard, domain.ConfirmStandard, true},
		{domain.StatusNoShow, domain.ConfirmStandard, domain.ConfirmStandard, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.status)+"/"+tc.given.String(), func(t *testing.T) {
			env := newEnv()
			view := env.seedView(*scheduled(1))
			ctx := testCtx()
			env.remote.On("GetAppointment", ctx, uint(1)).Return(withStatus(1, tc.status), nil)
			env.remote.On("DeleteAppointment", ctx, uint(1)).Return(nil).Maybe()

			uc := NewDeleteAppointment(env.remote, env.effects)

			required, err := uc.RequiredConfirmation(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.required, required)

			err = uc.Execute(ctx, 1, tc.given)
			if tc.allowed {
				require.NoError(t, err)
				assert.False(t, env.viewCached(view))
				assert.Equal(t, []string{"appointment.deleted"}, env.auditor.actions())
				return
			}

			code, _ := apperr.CodeOf(err)
			assert.Equal(t, "confirmation_required", code)
			assert.True(t, env.viewCached(view))
			env.remote.AssertNotCalled(t, "DeleteAppointment", mock.Anything, mock.Anything)
		})
	}
}
