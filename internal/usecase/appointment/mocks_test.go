package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/BruksfildServices01/studio-agenda/internal/archive"
	"github.com/BruksfildServices01/studio-agenda/internal/audit"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

// ======================================================
// REMOTE
// ======================================================

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) CreateAppointment(ctx context.Context, ap *models.Appointment) (*models.Appointment, error) {
	args := m.Called(ctx, ap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockRemote) UpdateAppointment(ctx context.Context, id uint, data domain.UpdateData) (*models.Appointment, error) {
	args := m.Called(ctx, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockRemote) UpdateStatus(ctx context.Context, id uint, status domain.Status) (*models.Appointment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockRemote) CancelAppointment(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) DeleteAppointment(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockRemote) ListAppointments(ctx context.Context, filter domain.ListFilter) ([]models.Appointment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *mockRemote) GetService(ctx context.Context, id uint) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockRemote) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockRemote) RecordConsumption(ctx context.Context, appointmentID uint, items []ledger.Item) ([]models.ConsumptionRecord, error) {
	args := m.Called(ctx, appointmentID, items)
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

func (m *mockRemote) ListAvailableRewards(ctx context.Context, clientID uint) ([]pricing.RewardAvailability, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.RewardAvailability), args.Error(1)
}

func (m *mockRemote) GetReward(ctx context.Context, id uint) (*models.LoyaltyReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoyaltyReward), args.Error(1)
}

func (m *mockRemote) RedeemReward(ctx context.Context, clientID, rewardID uint, pointsCost int) error {
	return m.Called(ctx, clientID, rewardID, pointsCost).Error(0)
}

var _ domain.Remote = (*mockRemote)(nil)

// ======================================================
// SIDE EFFECTS
// ======================================================

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditor) Dispatch(ev audit.Event) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeAuditor) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Action)
	}
	return out
}

type fakeArchiver struct {
	receipts []archive.Receipt
	err      error
}

func (f *fakeArchiver) Archive(_ context.Context, r archive.Receipt) (string, error) {
	f.receipts = append(f.receipts, r)
	return "receipts/key.json", f.err
}

// ======================================================
// HELPERS
// ======================================================

const testBusiness uint = 7

var fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func testCtx() context.Context {
	ctx := tenancy.WithBusinessID(context.Background(), testBusiness)
	return tenancy.WithUserID(ctx, 3)
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrUint(v uint) *uint          { return &v }
func ptrInt(v int) *int             { return &v }

type testEnv struct {
	remote   *mockRemote
	store    *cache.MemoryStore
	auditor  *fakeAuditor
	archiver *fakeArchiver
	effects  *Effects
}

func newEnv() *testEnv {
	env := &testEnv{
		remote:   new(mockRemote),
		store:    cache.NewMemoryStore(),
		auditor:  &fakeAuditor{},
		archiver: &fakeArchiver{},
	}
	env.effects = &Effects{
		Cache:    env.store,
		Audit:    env.auditor,
		Receipts: env.archiver,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return fixedNow },
	}
	return env
}

// seedView guarda uma visão do calendário e um agregado para conferir a
// invalidação depois de um gesto.
func (e *testEnv) seedView(items ...models.Appointment) cache.Key {
	key := cache.AppointmentsKey(testBusiness, at(0, 0), at(0, 0).AddDate(0, 0, 1))
	if err := cache.Put(context.Background(), e.store, key, items); err != nil {
		panic(err)
	}
	if err := e.store.SaveAggregate(context.Background(), cache.RevenueKey(testBusiness, at(0, 0)), map[string]int{"n": 1}); err != nil {
		panic(err)
	}
	return key
}

func (e *testEnv) viewCached(key cache.Key) bool {
	entry, _ := e.store.Load(context.Background(), key)
	return entry.Found
}

func scheduled(id uint) *models.Appointment {
	return &models.Appointment{
		ID:         id,
		BusinessID: testBusiness,
		ClientID:   11,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Status:     string(domain.StatusScheduled),
	}
}
