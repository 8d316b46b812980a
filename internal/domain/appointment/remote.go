package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// ListFilter seleciona agendamentos por período (início em [From, To)).
type ListFilter struct {
	From     time.Time
	To       time.Time
	Statuses []Status
	ClientID *uint
}

// UpdateData: campos nil não mudam.
type UpdateData struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
	Selection ServiceSelection
	Price     *pricing.Breakdown
	Rating    *int
	Comment   *string
}

// Remote é o serviço de agendamentos dono dos registros. Ele aplica as
// regras de negócio do lado servidor; o core só reage ao que ele confirma.
type Remote interface {
	// -------- Appointment --------
	CreateAppointment(ctx context.Context, ap *models.Appointment) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, id uint, data UpdateData) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, id uint) error
	DeleteAppointment(ctx context.Context, id uint) error
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
	ListAppointments(ctx context.Context, filter ListFilter) ([]models.Appointment, error)

	// -------- Reference data --------
	GetService(ctx context.Context, id uint) (*models.Service, error)
	GetClient(ctx context.Context, id uint) (*models.Client, error)

	// -------- Materials --------
	ledger.Recorder
	ledger.MaterialSource

	// -------- Loyalty --------
	pricing.RewardSource
	// GetReward devolve a recompensa mesmo inativa: um agendamento antigo
	// ainda precisa dela para recalcular o desconto.
	GetReward(ctx context.Context, id uint) (*models.LoyaltyReward, error)
	RedeemReward(ctx context.Context, clientID, rewardID uint, pointsCost int) error
}
