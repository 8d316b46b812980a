package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// AuditLogFilter são os filtros da trilha de auditoria. Datas são dias no
// fuso do estabelecimento, "to" inclusivo.
type AuditLogFilter struct {
	Action    string `form:"action" json:"action" validate:"max=50"`
	Entity    string `form:"entity" json:"entity" validate:"max=50"`
	EntityID  uint   `form:"entity_id" json:"entity_id"`
	UserID    uint   `form:"user_id" json:"user_id"`
	RequestID string `form:"request_id" json:"request_id" validate:"max=64"`
	From      string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page" json:"page" validate:"gte=0"`
	Limit     int    `form:"limit" json:"limit" validate:"gte=0,lte=200"`
}

func (f *AuditLogFilter) normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
}

// scope aplica os filtros; o estabelecimento vem sempre do token.
func (f AuditLogFilter) scope(q *gorm.DB, businessID uint, loc *time.Location) *gorm.DB {
	q = q.Where("business_id = ?", businessID)

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RequestID != "" {
		q = q.Where("request_id = ?", f.RequestID)
	}
	if day, err := timezone.ParseDay(f.From, loc); f.From != "" && err == nil {
		q = q.Where("created_at >= ?", day)
	}
	if day, err := timezone.ParseDay(f.To, loc); f.To != "" && err == nil {
		q = q.Where("created_at < ?", day.AddDate(0, 0, 1))
	}
	return q
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	businessID := c.GetUint(middleware.ContextBusinessID)

	var filter AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httperr.BadRequest(c, "invalid_query", "Filtros inválidos.")
		return
	}
	if err := validators.Struct(filter); err != nil {
		httperr.FromError(c, err)
		return
	}
	filter.normalize()

	q := filter.scope(
		h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{}),
		businessID,
		businessLocation(h.db, businessID),
	)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Erro ao contar logs.")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  filter.Page,
		"limit": filter.Limit,
		"total": total,
		"logs":  logs,
	})
}
