package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type ServiceHandler struct {
	db    *gorm.DB
	audit Auditor
}

func NewServiceHandler(db *gorm.DB, audit Auditor) *ServiceHandler {
	return &ServiceHandler{db: db, audit: audit}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	DurationMin int             `json:"duration_min" validate:"required,min=1"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"max=50"`
	Color       string          `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateServiceRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=255"`
	DurationMin *int             `json:"duration_min,omitempty" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=50"`
	Color       *string          `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Active      *bool            `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	activeStr := strings.TrimSpace(c.Query("active")) // "true", "false" ou vazio
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.Where("business_id = ?", businessID)

	if category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	switch activeStr {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	c.JSON(http.StatusOK, services)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var req CreateServiceRequest
	if !validators.Bind(c, &req) {
		return
	}
	if req.Price.IsNegative() {
		httperr.BadRequest(c, "invalid_price", "Preço não pode ser negativo.")
		return
	}

	service := models.Service{
		BusinessID:  businessID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DurationMin: req.DurationMin,
		Price:       req.Price.Round(2),
		Active:      true,
		Category:    strings.ToLower(req.Category),
		Color:       req.Color,
	}

	if err := h.db.Create(&service).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "service.created", "service", &service.ID, nil)
	c.JSON(http.StatusCreated, service)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)
	id := c.Param("id")

	var service models.Service
	if err := h.db.
		Where("id = ? AND business_id = ?", id, businessID).
		First(&service).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "service_not_found", "Serviço não encontrado.")
			return
		}
		httperr.Internal(c, "failed_to_get_service", "Erro ao buscar serviço.")
		return
	}

	var req UpdateServiceRequest
	if !validators.Bind(c, &req) {
		return
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.DurationMin != nil {
		service.DurationMin = *req.DurationMin
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			httperr.BadRequest(c, "invalid_price", "Preço não pode ser negativo.")
			return
		}
		service.Price = req.Price.Round(2)
	}
	if req.Category != nil {
		service.Category = strings.ToLower(*req.Category)
	}
	if req.Color != nil {
		service.Color = *req.Color
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.Save(&service).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "service.updated", "service", &service.ID, nil)
	c.JSON(http.StatusOK, service)
}
