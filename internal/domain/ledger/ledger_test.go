package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) RecordConsumption(ctx context.Context, id uint, items []Item) ([]models.ConsumptionRecord, error) {
	args := m.Called(ctx, id, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsumptionRecord), args.Error(1)
}

func (m *mockRemote) ListMaterials(ctx context.Context) ([]models.Material, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Material), args.Error(1)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func materials() []models.Material {
	return []models.Material{
		{ID: 1, Name: "Tintura", Unit: models.UnitMilliliter, UnitCost: d("0.45"), Stock: d("100"), MinStock: d("20")},
		{ID: 2, Name: "Luva", Unit: models.UnitCount, UnitCost: d("1.20"), Stock: d("5"), MinStock: d("10")},
	}
}

func newLedger(r *mockRemote) *Ledger {
	l := New(r, r)
	l.Snapshot().Replace(materials(), time.Now())
	return l
}

func TestPrepareSumsDuplicatesAndPrices(t *testing.T) {
	l := newLedger(&mockRemote{})

	records, err := l.Prepare(10, []Item{
		{MaterialID: 1, Quantity: d("30")},
		{MaterialID: 2, Quantity: d("2")},
		{MaterialID: 1, Quantity: d("15")},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, uint(1), records[0].MaterialID)
	assert.True(t, records[0].Quantity.Equal(d("45")))
	assert.True(t, records[0].Total.Equal(d("20.25")))
	assert.True(t, records[1].Total.Equal(d("2.40")))
	assert.True(t, TotalCost(records).Equal(d("22.65")))
}

func TestPrepareRejectsWholeBatch(t *testing.T) {
	l := newLedger(&mockRemote{})

	_, err := l.Prepare(10, nil)
	code, _ := apperr.CodeOf(err)
	assert.Equal(t, "materials_required", code)

	_, err = l.Prepare(10, []Item{{MaterialID: 1, Quantity: d("0")}})
	code, _ = apperr.CodeOf(err)
	assert.Equal(t, "invalid_quantity", code)

	_, err = l.Prepare(10, []Item{{MaterialID: 99, Quantity: d("1")}})
	code, _ = apperr.CodeOf(err)
	assert.Equal(t, "material_not_found", code)

	// duas linhas de 3 luvas somam 6 > 5
	_, err = l.Prepare(10, []Item{
		{MaterialID: 1, Quantity: d("1")},
		{MaterialID: 2, Quantity: d("3")},
		{MaterialID: 2, Quantity: d("3")},
	})
	var se *apperr.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Luva", se.Material)
	assert.True(t, se.Requested.Equal(d("6")))
}

func TestRecordSendsMergedItemsAndDecrementsSnapshot(t *testing.T) {
	r := &mockRemote{}
	l := newLedger(r)

	merged := mock.MatchedBy(func(items []Item) bool {
		return len(items) == 1 && items[0].MaterialID == 1 && items[0].Quantity.Equal(d("40"))
	})
	r.On("RecordConsumption", mock.Anything, uint(10), merged).Return(nil, nil)

	records, err := l.Record(context.Background(), 10, []Item{
		{MaterialID: 1, Quantity: d("25")},
		{MaterialID: 1, Quantity: d("15")},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Total.Equal(d("18")))

	m, _ := l.Snapshot().Get(1)
	assert.True(t, m.Stock.Equal(d("60")))
	r.AssertExpectations(t)
}

func TestRecordNothingSentOnLocalFailure(t *testing.T) {
	r := &mockRemote{}
	l := newLedger(r)

	_, err := l.Record(context.Background(), 10, []Item{{MaterialID: 2, Quantity: d("50")}})
	assert.Error(t, err)
	r.AssertNotCalled(t, "RecordConsumption", mock.Anything, mock.Anything, mock.Anything)

	m, _ := l.Snapshot().Get(2)
	assert.True(t, m.Stock.Equal(d("5")))
}

func TestRecordRemoteFailureKeepsSnapshot(t *testing.T) {
	r := &mockRemote{}
	l := newLedger(r)
	r.On("RecordConsumption", mock.Anything, uint(10), mock.Anything).
		Return(nil, apperr.Network("record_consumption", errors.New("timeout")))

	_, err := l.Record(context.Background(), 10, []Item{{MaterialID: 1, Quantity: d("1")}})
	assert.True(t, apperr.IsNetwork(err))

	m, _ := l.Snapshot().Get(1)
	assert.True(t, m.Stock.Equal(d("100")))
}

func TestRecordRefreshesEmptySnapshot(t *testing.T) {
	r := &mockRemote{}
	l := New(r, r)
	r.On("ListMaterials", mock.Anything).Return(materials(), nil).Once()
	r.On("RecordConsumption", mock.Anything, uint(3), mock.Anything).Return([]models.ConsumptionRecord{}, nil)

	_, err := l.Record(context.Background(), 3, []Item{{MaterialID: 2, Quantity: d("1")}})
	require.NoError(t, err)
	assert.False(t, l.Snapshot().Empty())
	r.AssertExpectations(t)
}

func TestBelowMinimum(t *testing.T) {
	s := NewSnapshot(materials(), time.Now())
	low := s.BelowMinimum()
	require.Len(t, low, 1)
	assert.Equal(t, "Luva", low[0].Name)
}
