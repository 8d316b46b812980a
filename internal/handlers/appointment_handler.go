package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/dto"
	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/httpresp"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/studio-agenda/internal/usecase/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/validators"
)

const DeleteConfirmationHeader = "X-Delete-Confirmation"

// ======================================================
// HANDLER
// ======================================================

// AppointmentUseCases agrupa os gestos que a agenda expõe.
type AppointmentUseCases struct {
	Create     *ucAppointment.CreateAppointment
	Edit       *ucAppointment.EditAppointment
	Status     *ucAppointment.ChangeAppointmentStatus
	Reactivate *ucAppointment.ReactivateAppointment
	Cancel     *ucAppointment.CancelAppointment
	Complete   *ucAppointment.CompleteAppointment
	Delete     *ucAppointment.DeleteAppointment
	List       *ucAppointment.ListAppointments
	Reschedule *ucAppointment.RescheduleOnCalendar
	Revenue    *ucAppointment.DailyRevenue
	Quote      *ucAppointment.QuotePrice
}

type AppointmentHandler struct {
	db *gorm.DB
	uc AppointmentUseCases
}

func NewAppointmentHandler(db *gorm.DB, uc AppointmentUseCases) *AppointmentHandler {
	return &AppointmentHandler{db: db, uc: uc}
}

// ======================================================
// REQUESTS
// ======================================================

type CustomServiceRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Value       decimal.Decimal `json:"value"`
}

// Exatamente um de service_id e custom.
type ServiceSelectionRequest struct {
	ServiceID *uint                 `json:"service_id"`
	Custom    *CustomServiceRequest `json:"custom"`
}

func (r ServiceSelectionRequest) present() bool {
	return r.ServiceID != nil || r.Custom != nil
}

func (r ServiceSelectionRequest) selection() (domain.ServiceSelection, error) {
	switch {
	case r.ServiceID != nil && r.Custom != nil:
		return nil, apperr.Validation("ambiguous_service", "Escolha um serviço do catálogo ou um personalizado, não os dois.")
	case r.ServiceID != nil:
		return domain.Predefined{ServiceID: *r.ServiceID}, nil
	case r.Custom != nil:
		return domain.Custom{
			Name:        r.Custom.Name,
			Description: r.Custom.Description,
			Value:       r.Custom.Value,
		}, nil
	}
	return nil, apperr.Validation("service_required", "Selecione um serviço.")
}

type CreateAppointmentRequest struct {
	ClientID uint `json:"client_id" validate:"required"`
	ServiceSelectionRequest

	Start string `json:"start" validate:"required"`
	End   string `json:"end"`
	Notes string `json:"notes" validate:"max=255"`

	RewardID *uint           `json:"reward_id"`
	Discount decimal.Decimal `json:"discount"`
}

type EditAppointmentRequest struct {
	ServiceSelectionRequest

	Start    string           `json:"start"`
	End      string           `json:"end"`
	Notes    *string          `json:"notes" validate:"omitempty,max=255"`
	Discount *decimal.Decimal `json:"discount"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

type MaterialItemRequest struct {
	MaterialID uint            `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type CompleteAppointmentRequest struct {
	Rating    *int                  `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment   string                `json:"comment" validate:"max=255"`
	Materials []MaterialItemRequest `json:"materials" validate:"dive"`
}

// A visão é identificada pela janela devolvida na listagem.
type CalendarGestureRequest struct {
	ViewFrom string `json:"view_from" validate:"required"`
	ViewTo   string `json:"view_to" validate:"required"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end"`
}

type QuoteRequest struct {
	ClientID uint `json:"client_id"`
	ServiceSelectionRequest

	RewardID *uint           `json:"reward_id"`
	Discount decimal.Decimal `json:"discount"`
}

// ======================================================
// HELPERS
// ======================================================

func appointmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}

func (h *AppointmentHandler) location(c *gin.Context) *time.Location {
	return businessLocation(h.db, c.GetUint(middleware.ContextBusinessID))
}

func parseStatuses(raw string) ([]domain.Status, error) {
	if raw == "" {
		return nil, nil
	}

	var out []domain.Status
	for _, part := range strings.Split(raw, ",") {
		s := domain.Status(strings.ToLower(strings.TrimSpace(part)))
		if !s.Valid() {
			return nil, apperr.Validation("invalid_status", "Status inválido.")
		}
		out = append(out, s)
	}
	return out, nil
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if !validators.Bind(c, &req) {
		return
	}

	sel, err := req.selection()
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	loc := h.location(c)
	start, err := parseInstant(req.Start, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	end, err := parseOptionalInstant(req.End, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	res, err := h.uc.Create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		ClientID:       req.ClientID,
		Selection:      sel,
		Start:          start,
		End:            end,
		Notes:          req.Notes,
		RewardID:       req.RewardID,
		ManualDiscount: req.Discount,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	loc := h.location(c)

	from, to, err := parseWindow(c, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	items, _, err := h.uc.List.Execute(c.Request.Context(), from, to, statuses)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	out := dto.FromAppointments(items)
	c.JSON(http.StatusOK, gin.H{
		"view_from": from.Format(time.RFC3339),
		"view_to":   to.Format(time.RFC3339),
		"data":      out,
		"total":     len(out),
	})
}

// ======================================================
// EDIT
// ======================================================

func (h *AppointmentHandler) Edit(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req EditAppointmentRequest
	if !validators.Bind(c, &req) {
		return
	}

	in := ucAppointment.EditAppointmentInput{
		ID:             id,
		Notes:          req.Notes,
		ManualDiscount: req.Discount,
	}

	if req.present() {
		sel, err := req.selection()
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		in.Selection = sel
	}

	loc := h.location(c)
	var err error
	if in.Start, err = parseOptionalInstant(req.Start, loc); err != nil {
		httperr.FromError(c, err)
		return
	}
	if in.End, err = parseOptionalInstant(req.End, loc); err != nil {
		httperr.FromError(c, err)
		return
	}

	updated, err := h.uc.Edit.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, updated)
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if !validators.Bind(c, &req) {
		return
	}

	updated, err := h.uc.Status.Execute(c.Request.Context(), id, domain.Status(req.Status))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, updated)
}

func (h *AppointmentHandler) Reactivate(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	updated, err := h.uc.Reactivate.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, updated)
}

// ======================================================
// CANCEL
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.uc.Cancel.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// COMPLETE
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req CompleteAppointmentRequest
	// corpo vazio conclui sem materiais
	if c.Request.ContentLength != 0 && !validators.Bind(c, &req) {
		return
	}

	items := make([]ledger.Item, 0, len(req.Materials))
	for _, m := range req.Materials {
		items = append(items, ledger.Item{MaterialID: m.MaterialID, Quantity: m.Quantity})
	}

	res, err := h.uc.Complete.Execute(c.Request.Context(), ucAppointment.CompleteAppointmentInput{
		ID:        id,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Materials: items,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}

// ======================================================
// CALENDAR (drag / resize)
// ======================================================

func (h *AppointmentHandler) Move(c *gin.Context) {
	h.calendarGesture(c, false)
}

func (h *AppointmentHandler) Resize(c *gin.Context) {
	h.calendarGesture(c, true)
}

func (h *AppointmentHandler) calendarGesture(c *gin.Context, resize bool) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req CalendarGestureRequest
	if !validators.Bind(c, &req) {
		return
	}

	loc := h.location(c)
	viewFrom, viewTo, err := windowFromTo(req.ViewFrom, req.ViewTo, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	start, err := parseInstant(req.Start, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	var end *time.Time
	if resize {
		if req.End == "" {
			httperr.BadRequest(c, "end_required", "Informe o horário de término.")
			return
		}
		if end, err = parseOptionalInstant(req.End, loc); err != nil {
			httperr.FromError(c, err)
			return
		}
	}

	view := cache.AppointmentsKey(c.GetUint(middleware.ContextBusinessID), viewFrom, viewTo)
	updated, err := h.uc.Reschedule.Execute(c.Request.Context(), view, id, start, end)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, updated)
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) DeleteConfirmation(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	required, err := h.uc.Delete.RequiredConfirmation(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmation": required.String()})
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	raw := c.GetHeader(DeleteConfirmationHeader)
	if raw == "" {
		raw = c.Query("confirmation")
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), id, domain.ParseConfirmation(raw)); err != nil {
		httperr.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ======================================================
// QUOTE / REVENUE
// ======================================================

func (h *AppointmentHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !validators.Bind(c, &req) {
		return
	}

	sel, err := req.selection()
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	res, err := h.uc.Quote.Execute(c.Request.Context(), ucAppointment.QuoteInput{
		ClientID:       req.ClientID,
		Selection:      sel,
		RewardID:       req.RewardID,
		ManualDiscount: req.Discount,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}

func (h *AppointmentHandler) DailyRevenue(c *gin.Context) {
	loc := h.location(c)

	day := time.Now().In(loc)
	if date := c.Query("date"); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		day = parsed
	}

	sum, err := h.uc.Revenue.Execute(c.Request.Context(), day, loc)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, sum)
}
