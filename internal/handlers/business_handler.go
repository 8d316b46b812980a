package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type BusinessHandler struct {
	db    *gorm.DB
	audit Auditor
}

func NewBusinessHandler(db *gorm.DB, audit Auditor) *BusinessHandler {
	return &BusinessHandler{db: db, audit: audit}
}

type UpdateBusinessRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
}

func (h *BusinessHandler) load(c *gin.Context) (*models.Business, bool) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var biz models.Business
	if err := h.db.First(&biz, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "business_not_found", "Estabelecimento não encontrado.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_business", "Erro ao buscar dados do estabelecimento.")
		return nil, false
	}
	return &biz, true
}

func (h *BusinessHandler) GetMeBusiness(c *gin.Context) {
	biz, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, biz)
}

func (h *BusinessHandler) UpdateMeBusiness(c *gin.Context) {
	biz, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateBusinessRequest
	if !validators.Bind(c, &req) {
		return
	}

	if req.Name != nil {
		biz.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		biz.Phone = *req.Phone
	}
	if req.Address != nil {
		biz.Address = *req.Address
	}
	// o fuso define os limites dos dias na agenda e no faturamento
	if req.Timezone != nil {
		biz.Timezone = *req.Timezone
	}

	if err := h.db.Save(biz).Error; err != nil {
		httperr.Internal(c, "failed_to_update_business", "Erro ao salvar as configurações do estabelecimento.")
		return
	}

	writeAudit(h.audit, c, "business.updated", "business", &biz.ID, req)
	c.JSON(http.StatusOK, biz)
}
