package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/httpresp"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	ucAppointment "github.com/BruksfildServices01/studio-agenda/internal/usecase/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type MaterialHandler struct {
	db       *gorm.DB
	audit    Auditor
	lowStock *ucAppointment.LowStock
}

func NewMaterialHandler(db *gorm.DB, audit Auditor, lowStock *ucAppointment.LowStock) *MaterialHandler {
	return &MaterialHandler{db: db, audit: audit, lowStock: lowStock}
}

// --------- Requests ---------

type CreateMaterialRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Unit     string          `json:"unit" validate:"required,material_unit"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Stock    decimal.Decimal `json:"stock"`
	MinStock decimal.Decimal `json:"min_stock"`
}

type UpdateMaterialRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Unit     *string          `json:"unit,omitempty" validate:"omitempty,material_unit"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
	MinStock *decimal.Decimal `json:"min_stock,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

// Entrada de estoque: soma à quantidade atual.
type RestockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// --------- Handlers ---------

func (h *MaterialHandler) List(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	q := h.db.Where("business_id = ?", businessID)
	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var materials []models.Material
	if err := q.Order("name ASC").Find(&materials).Error; err != nil {
		httperr.Internal(c, "failed_to_list_materials", "Erro ao listar materiais.")
		return
	}

	c.JSON(http.StatusOK, materials)
}

func (h *MaterialHandler) LowStock(c *gin.Context) {
	materials, err := h.lowStock.Execute(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, materials)
}

func (h *MaterialHandler) Create(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var req CreateMaterialRequest
	if !validators.Bind(c, &req) {
		return
	}
	if req.UnitCost.IsNegative() || req.Stock.IsNegative() || req.MinStock.IsNegative() {
		httperr.BadRequest(c, "invalid_quantity", "Custo e estoque não podem ser negativos.")
		return
	}

	material := models.Material{
		BusinessID: businessID,
		Name:       strings.TrimSpace(req.Name),
		Unit:       req.Unit,
		UnitCost:   req.UnitCost.Round(2),
		Stock:      req.Stock,
		MinStock:   req.MinStock,
		Active:     true,
	}

	if err := h.db.Create(&material).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "material.created", "material", &material.ID, nil)
	c.JSON(http.StatusCreated, material)
}

func (h *MaterialHandler) Update(c *gin.Context) {
	material, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateMaterialRequest
	if !validators.Bind(c, &req) {
		return
	}

	if req.Name != nil {
		material.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		material.Unit = *req.Unit
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			httperr.BadRequest(c, "invalid_quantity", "Custo não pode ser negativo.")
			return
		}
		material.UnitCost = req.UnitCost.Round(2)
	}
	if req.MinStock != nil {
		material.MinStock = *req.MinStock
	}
	if req.Active != nil {
		material.Active = *req.Active
	}

	if err := h.db.Save(material).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "material.updated", "material", &material.ID, nil)
	c.JSON(http.StatusOK, material)
}

func (h *MaterialHandler) Restock(c *gin.Context) {
	material, ok := h.load(c)
	if !ok {
		return
	}

	var req RestockRequest
	if !validators.Bind(c, &req) {
		return
	}
	if !req.Quantity.IsPositive() {
		httperr.BadRequest(c, "invalid_quantity", "Quantidade inválida.")
		return
	}

	if err := h.db.Model(material).
		Update("stock", gorm.Expr("stock + ?", req.Quantity)).Error; err != nil {
		httperr.FromError(c, err)
		return
	}
	material.Stock = material.Stock.Add(req.Quantity)

	writeAudit(h.audit, c, "material.restocked", "material", &material.ID, map[string]any{
		"quantity": req.Quantity,
	})
	c.JSON(http.StatusOK, material)
}

func (h *MaterialHandler) load(c *gin.Context) (*models.Material, bool) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var material models.Material
	if err := h.db.
		Where("id = ? AND business_id = ?", c.Param("id"), businessID).
		First(&material).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "material_not_found", "Material não encontrado.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_material", "Erro ao buscar material.")
		return nil, false
	}
	return &material, true
}
