package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func newMockRepo(t *testing.T) (*AppointmentGormRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewAppointmentGormRepository(db), mock
}

func businessCtx() context.Context {
	return tenancy.WithBusinessID(context.Background(), 7)
}

func TestRequiresBusinessInContext(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.GetAppointment(context.Background(), 1)
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "business_required", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsTerminal(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "status"}).
			AddRow(1, 7, "completed"))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(businessCtx(), 1, domain.StatusScheduled)

	var te *apperr.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(businessCtx(), 99, domain.StatusCanceled)
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "appointment_not_found", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAppointmentNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "appointments"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteAppointment(businessCtx(), 5)
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "appointment_not_found", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemRewardInsufficientPoints(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "clients"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "points"}).AddRow(3, 7, 50))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loyalty_rewards"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "points_required", "active"}).
			AddRow(9, 7, 100, true))
	mock.ExpectRollback()

	err := repo.RedeemReward(businessCtx(), 3, 9, 100)
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "insufficient_points", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordConsumptionInsufficientStock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "materials"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "stock", "unit_cost"}).
			AddRow(1, 7, "Tintura", "10", "0.45"))
	mock.ExpectRollback()

	_, err := repo.RecordConsumption(businessCtx(), 1, []ledger.Item{{MaterialID: 1, Quantity: decimal.NewFromInt(30)}})

	var se *apperr.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Tintura", se.Material)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --------------------------------------------------
// applyUpdate
// --------------------------------------------------

func scheduled() models.Appointment {
	return models.Appointment{ID: 1, Status: "scheduled", StartTime: at(10, 0), EndTime: at(11, 0)}
}

func TestApplyUpdateReschedulesAndReprices(t *testing.T) {
	ap := scheduled()
	start, end := at(14, 0), at(15, 30)
	notes := "trazer referência"

	err := applyUpdate(&ap, domain.UpdateData{
		StartTime: &start,
		EndTime:   &end,
		Notes:     &notes,
		Selection: domain.Custom{Name: "Mechas", Value: decimal.NewFromInt(300)},
		Price:     &pricing.Breakdown{Base: decimal.NewFromInt(300), Discount: decimal.NewFromInt(400)},
	})
	require.NoError(t, err)

	assert.True(t, ap.EndTime.Equal(at(15, 30)))
	assert.Equal(t, notes, ap.Notes)
	assert.Equal(t, "Mechas", ap.CustomName)
	assert.True(t, ap.DiscountValue.Equal(decimal.NewFromInt(300)))
	assert.True(t, ap.FinalValue.IsZero())
}

func TestApplyUpdateRejectsImmutable(t *testing.T) {
	ap := scheduled()
	ap.Status = "canceled"
	notes := "x"

	err := applyUpdate(&ap, domain.UpdateData{Notes: &notes})
	var ie *apperr.ImmutableStateError
	assert.ErrorAs(t, err, &ie)
}

func TestApplyUpdateRatingOnlyWhenCompleted(t *testing.T) {
	rating := 4

	ap := scheduled()
	err := applyUpdate(&ap, domain.UpdateData{Rating: &rating})
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "rating_requires_completion", code)

	ap.Status = "completed"
	comment := "muito bom"
	require.NoError(t, applyUpdate(&ap, domain.UpdateData{Rating: &rating, Comment: &comment}))
	assert.Equal(t, 4, *ap.Rating)
	assert.Equal(t, comment, ap.RatingComment)
}

func TestApplyUpdateKeepsDurationFieldsIndependent(t *testing.T) {
	ap := scheduled()
	end := at(10, 0)

	err := applyUpdate(&ap, domain.UpdateData{EndTime: &end})
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "end_before_start", code)
	assert.True(t, ap.EndTime.Equal(at(11, 0)))
}
