package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

// AppointmentGormRepository é o serviço de agendamentos local: aplica as
// regras do lado servidor sobre o Postgres. Todo acesso é limitado ao
// estabelecimento do contexto.
type AppointmentGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db, now: time.Now}
}

func (r *AppointmentGormRepository) scoped(ctx context.Context) (*gorm.DB, uint, error) {
	businessID, ok := tenancy.BusinessIDFromContext(ctx)
	if !ok {
		return nil, 0, apperr.Validation("business_required", "Estabelecimento não identificado.")
	}
	return r.db.WithContext(ctx), businessID, nil
}

func notFound(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Validation(code, message)
	}
	return err
}

func errAppointmentNotFound(err error) error {
	return notFound(err, "appointment_not_found", "Agendamento não encontrado.")
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) (*models.Appointment, error) {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateWindow(ap.StartTime, ap.EndTime); err != nil {
		return nil, err
	}
	if _, err := domain.SelectionOf(ap); err != nil {
		return nil, err
	}

	ap.BusinessID = businessID
	if ap.Status == "" {
		ap.Status = string(domain.InitialStatus())
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("id = ? AND business_id = ?", ap.ClientID, businessID).
			First(&client).Error; err != nil {
			return notFound(err, "client_not_found", "Cliente não encontrado.")
		}

		if ap.ServiceID != nil {
			var svc models.Service
			if err := tx.Where("id = ? AND business_id = ?", *ap.ServiceID, businessID).
				First(&svc).Error; err != nil {
				return notFound(err, "service_not_found", "Serviço não encontrado.")
			}
			if !svc.Active {
				return apperr.Validation("service_inactive", "Serviço inativo.")
			}
		}

		return tx.Omit(clause.Associations).Create(ap).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetAppointment(ctx, ap.ID)
}

// UpdateAppointment aplica os campos não nulos. Avaliação só é aceita em
// agendamento concluído; os demais campos só enquanto ele é editável.
func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	id uint,
	data domain.UpdateData,
) (*models.Appointment, error) {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var ap models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND business_id = ?", id, businessID).
			First(&ap).Error; err != nil {
			return errAppointmentNotFound(err)
		}

		if err := applyUpdate(&ap, data); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(&ap).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetAppointment(ctx, id)
}

func applyUpdate(ap *models.Appointment, data domain.UpdateData) error {
	editsBooking := data.StartTime != nil || data.EndTime != nil ||
		data.Notes != nil || data.Selection != nil || data.Price != nil

	if editsBooking {
		if err := domain.CanEdit(domain.Status(ap.Status)); err != nil {
			return err
		}

		start, end := ap.StartTime, ap.EndTime
		if data.StartTime != nil {
			start = *data.StartTime
		}
		if data.EndTime != nil {
			end = *data.EndTime
		}
		if err := domain.Reschedule(ap, start, end); err != nil {
			return err
		}

		if data.Notes != nil {
			ap.Notes = *data.Notes
		}
		if data.Selection != nil {
			if err := domain.ValidateSelection(data.Selection); err != nil {
				return err
			}
			domain.ApplySelection(ap, data.Selection)
		}
		if data.Price != nil {
			b, err := pricing.Price(data.Price.Base, data.Price.Discount)
			if err != nil {
				return err
			}
			domain.ApplyPrice(ap, b)
		}
	}

	if data.Rating != nil {
		if domain.Status(ap.Status) != domain.StatusCompleted {
			return apperr.Validation("rating_requires_completion", "Só é possível avaliar atendimentos concluídos.")
		}
		comment := ap.RatingComment
		if data.Comment != nil {
			comment = *data.Comment
		}
		if err := domain.Rate(ap, *data.Rating, comment); err != nil {
			return err
		}
	}

	return nil
}

func (r *AppointmentGormRepository) UpdateStatus(
	ctx context.Context,
	id uint,
	status domain.Status,
) (*models.Appointment, error) {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var ap models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND business_id = ?", id, businessID).
			First(&ap).Error; err != nil {
			return errAppointmentNotFound(err)
		}

		now := r.now()
		var terr error
		if domain.Status(ap.Status) == domain.StatusNoShow && status == domain.StatusConfirmed {
			terr = domain.Reactivate(&ap, now)
		} else {
			terr = domain.Transition(&ap, status, now)
		}
		if terr != nil {
			return terr
		}

		return tx.Model(&ap).Updates(map[string]any{
			"status":       ap.Status,
			"canceled_at":  ap.CanceledAt,
			"completed_at": ap.CompletedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetAppointment(ctx, id)
}

func (r *AppointmentGormRepository) CancelAppointment(ctx context.Context, id uint) error {
	_, err := r.UpdateStatus(ctx, id, domain.StatusCanceled)
	return err
}

// DeleteAppointment remove a linha e os registros de consumo dela.
func (r *AppointmentGormRepository) DeleteAppointment(ctx context.Context, id uint) error {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND business_id = ?", id, businessID).
			Delete(&models.Appointment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAppointmentNotFound(gorm.ErrRecordNotFound)
		}

		return tx.Where("appointment_id = ?", id).
			Delete(&models.ConsumptionRecord{}).Error
	})
}

func (r *AppointmentGormRepository) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var ap models.Appointment
	if err := db.
		Preload("Client").
		Preload("Service").
		Where("id = ? AND business_id = ?", id, businessID).
		First(&ap).Error; err != nil {
		return nil, errAppointmentNotFound(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) ListAppointments(
	ctx context.Context,
	filter domain.ListFilter,
) ([]models.Appointment, error) {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	q := db.
		Preload("Client").
		Preload("Service").
		Where("business_id = ? AND start_time >= ? AND start_time < ?",
			businessID, filter.From, filter.To)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// --------------------------------------------------
// Reference data
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(ctx context.Context, id uint) (*models.Service, error) {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var svc models.Service
	if err := db.Where("id = ? AND business_id = ?", id, businessID).
		First(&svc).Error; err != nil {
		return nil, notFound(err, "service_not_found", "Serviço não encontrado.")
	}
	return &svc, nil
}

func (r *AppointmentGormRepository) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var client models.Client
	if err := db.Where("id = ? AND business_id = ?", id, businessID).
		First(&client).Error; err != nil {
		return nil, notFound(err, "client_not_found", "Cliente não encontrado.")
	}
	return &client, nil
}

// --------------------------------------------------
// Materials
// --------------------------------------------------

func (r *AppointmentGormRepository) ListMaterials(ctx context.Context) ([]models.Material, error) {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var materials []models.Material
	if err := db.Where("business_id = ? AND active = ?", businessID, true).
		Order("name ASC").
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// RecordConsumption baixa o estoque e grava os registros numa transação,
// com lock de linha em cada material.
func (r *AppointmentGormRepository) RecordConsumption(
	ctx context.Context,
	appointmentID uint,
	items []ledger.Item,
) ([]models.ConsumptionRecord, error) {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var records []models.ConsumptionRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("id = ? AND business_id = ?", appointmentID, businessID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errAppointmentNotFound(gorm.ErrRecordNotFound)
		}

		for _, it := range items {
			if !it.Quantity.IsPositive() {
				return apperr.Validation("invalid_quantity",
					fmt.Sprintf("Quantidade inválida para o material %d.", it.MaterialID))
			}

			var mat models.Material
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND business_id = ?", it.MaterialID, businessID).
				First(&mat).Error; err != nil {
				return notFound(err, "material_not_found",
					fmt.Sprintf("Material %d não encontrado.", it.MaterialID))
			}

			if it.Quantity.GreaterThan(mat.Stock) {
				return &apperr.InsufficientStockError{
					MaterialID: mat.ID,
					Material:   mat.Name,
					Available:  mat.Stock,
					Requested:  it.Quantity,
				}
			}

			if err := tx.Model(&mat).
				Update("stock", mat.Stock.Sub(it.Quantity)).Error; err != nil {
				return err
			}

			rec := models.ConsumptionRecord{
				AppointmentID: appointmentID,
				MaterialID:    mat.ID,
				MaterialName:  mat.Name,
				Quantity:      it.Quantity,
				UnitCost:      mat.UnitCost,
				Total:         ledger.LineTotal(it.Quantity, mat.UnitCost),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// --------------------------------------------------
// Loyalty
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAvailableRewards(
	ctx context.Context,
	clientID uint,
) ([]pricing.RewardAvailability, error) {

	client, err := r.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var rewards []models.LoyaltyReward
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND active = ?", client.BusinessID, true).
		Order("points_required ASC").
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	return pricing.Evaluate(client.Points, rewards), nil
}

func (r *AppointmentGormRepository) GetReward(ctx context.Context, id uint) (*models.LoyaltyReward, error) {
	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var reward models.LoyaltyReward
	if err := db.Where("id = ? AND business_id = ?", id, businessID).
		First(&reward).Error; err != nil {
		return nil, notFound(err, "reward_not_found", "Recompensa não encontrada.")
	}
	return &reward, nil
}

func (r *AppointmentGormRepository) RedeemReward(
	ctx context.Context,
	clientID uint,
	rewardID uint,
	pointsCost int,
) error {

	db, businessID, err := r.scoped(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND business_id = ?", clientID, businessID).
			First(&client).Error; err != nil {
			return notFound(err, "client_not_found", "Cliente não encontrado.")
		}

		var reward models.LoyaltyReward
		if err := tx.Where("id = ? AND business_id = ? AND active = ?", rewardID, businessID, true).
			First(&reward).Error; err != nil {
			return notFound(err, "reward_not_found", "Recompensa não encontrada.")
		}

		if pointsCost < reward.PointsRequired {
			pointsCost = reward.PointsRequired
		}
		if client.Points < pointsCost {
			return apperr.Validation("insufficient_points", "Pontos insuficientes para esta recompensa.")
		}

		if err := tx.Model(&client).
			Update("points", gorm.Expr("points - ?", pointsCost)).Error; err != nil {
			return err
		}

		return tx.Create(&models.RewardRedemption{
			ClientID:    clientID,
			RewardID:    rewardID,
			PointsSpent: pointsCost,
			RedeemedAt:  r.now(),
		}).Error
	})
}

// Compile-time check
var _ domain.Remote = (*AppointmentGormRepository)(nil)
