package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	ucAppointment "github.com/BruksfildServices01/studio-agenda/internal/usecase/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type ClientHandler struct {
	db      *gorm.DB
	audit   Auditor
	rewards *ucAppointment.ListRewards
}

func NewClientHandler(db *gorm.DB, audit Auditor, rewards *ucAppointment.ListRewards) *ClientHandler {
	return &ClientHandler{db: db, audit: audit, rewards: rewards}
}

type CreateClientRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,max=20"`
	Email string `json:"email" validate:"omitempty,email,max=100"`
}

// ======================================================
// LIST CLIENTS
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.Where("business_id = ?", businessID)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var clients []models.Client
	if err := q.
		Order("created_at DESC").
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// ======================================================
// CREATE
// ======================================================
func (h *ClientHandler) Create(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var req CreateClientRequest
	if !validators.Bind(c, &req) {
		return
	}

	phone := strings.TrimSpace(req.Phone)

	var count int64
	h.db.Model(&models.Client{}).
		Where("business_id = ? AND phone = ?", businessID, phone).
		Count(&count)
	if count > 0 {
		httperr.Conflict(c, "phone_already_registered", "Já existe um cliente com esse telefone.")
		return
	}

	client := models.Client{
		BusinessID: businessID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      phone,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
	}

	if err := h.db.Create(&client).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "client.created", "client", &client.ID, nil)
	c.JSON(http.StatusCreated, client)
}

// ======================================================
// GET
// ======================================================
func (h *ClientHandler) Get(c *gin.Context) {
	businessID := c.MustGet(middleware.ContextBusinessID).(uint)

	var client models.Client
	if err := h.db.
		Where("id = ? AND business_id = ?", c.Param("id"), businessID).
		First(&client).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "client_not_found", "Cliente não encontrado.")
			return
		}
		httperr.Internal(c, "failed_to_get_client", "Erro ao buscar cliente.")
		return
	}

	c.JSON(http.StatusOK, client)
}

// ======================================================
// REWARDS (saldo + disponibilidade)
// ======================================================
func (h *ClientHandler) Rewards(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return
	}

	res, err := h.rewards.Execute(c.Request.Context(), uint(id))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
