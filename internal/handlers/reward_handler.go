package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type RewardHandler struct {
	db    *gorm.DB
	audit Auditor
}

func NewRewardHandler(db *gorm.DB, audit Auditor) *RewardHandler {
	return &RewardHandler{db: db, audit: audit}
}

type CreateRewardRequest struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Description    string          `json:"description" validate:"max=255"`
	PointsRequired int             `json:"points_required" validate:"required,min=1"`
	Kind           string          `json:"kind" validate:"required,oneof=percentage fixed free_service product"`
	Magnitude      decimal.Decimal `json:"magnitude"`
}

type UpdateRewardRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=255"`
	PointsRequired *int             `json:"points_required,omitempty" validate:"omitempty,min=1"`
	Magnitude      *decimal.Decimal `json:"magnitude,omitempty"`
	Active         *bool            `json:"active,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func validMagnitude(kind models.RewardKind, m decimal.Decimal) bool {
	if m.IsNegative() {
		return false
	}
	if kind == models.RewardPercentage {
		return m.LessThanOrEqual(hundred)
	}
	return true
}

func (h *RewardHandler) List(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var rewards []models.LoyaltyReward
	if err := h.db.
		Where("business_id = ?", businessID).
		Order("points_required ASC").
		Find(&rewards).Error; err != nil {

		httperr.Internal(c, "failed_to_list_rewards", "Erro ao listar recompensas.")
		return
	}

	c.JSON(http.StatusOK, rewards)
}

func (h *RewardHandler) Create(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var req CreateRewardRequest
	if !validators.Bind(c, &req) {
		return
	}

	kind := models.RewardKind(req.Kind)
	if !validMagnitude(kind, req.Magnitude) {
		httperr.BadRequest(c, "invalid_magnitude", "Valor da recompensa inválido.")
		return
	}

	reward := models.LoyaltyReward{
		BusinessID:     businessID,
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Kind:           kind,
		Magnitude:      req.Magnitude.Round(2),
		Active:         true,
	}

	if err := h.db.Create(&reward).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "reward.created", "reward", &reward.ID, nil)
	c.JSON(http.StatusCreated, reward)
}

func (h *RewardHandler) Update(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var reward models.LoyaltyReward
	if err := h.db.
		Where("id = ? AND business_id = ?", c.Param("id"), businessID).
		First(&reward).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "reward_not_found", "Recompensa não encontrada.")
			return
		}
		httperr.Internal(c, "failed_to_get_reward", "Erro ao buscar recompensa.")
		return
	}

	var req UpdateRewardRequest
	if !validators.Bind(c, &req) {
		return
	}

	if req.Name != nil {
		reward.Name = *req.Name
	}
	if req.Description != nil {
		reward.Description = *req.Description
	}
	if req.PointsRequired != nil {
		reward.PointsRequired = *req.PointsRequired
	}
	if req.Magnitude != nil {
		if !validMagnitude(reward.Kind, *req.Magnitude) {
			httperr.BadRequest(c, "invalid_magnitude", "Valor da recompensa inválido.")
			return
		}
		reward.Magnitude = req.Magnitude.Round(2)
	}
	if req.Active != nil {
		reward.Active = *req.Active
	}

	if err := h.db.Save(&reward).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "reward.updated", "reward", &reward.ID, nil)
	c.JSON(http.StatusOK, reward)
}
