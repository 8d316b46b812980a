package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
)

const dateTimeLayout = "2006-01-02 15:04"

// --------------------------------------------------
// Fuso do estabelecimento
// --------------------------------------------------

// businessLocation resolve o fuso oficial do estabelecimento; sem cadastro
// vale o fuso padrão.
func businessLocation(db *gorm.DB, businessID uint) *time.Location {
	var biz models.Business
	if err := db.Select("timezone").First(&biz, businessID).Error; err != nil {
		return timezone.Location("")
	}
	return timezone.Location(biz.Timezone)
}

// parseInstant aceita RFC3339 ou "2006-01-02 15:04" no fuso do
// estabelecimento.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("invalid_date_or_time", "Data ou hora inválida.")
}

func parseOptionalInstant(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseInstant(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --------------------------------------------------
// Janela da visão do calendário
// --------------------------------------------------

// parseWindow lê a janela da query: from/to, date (um dia) ou year/month.
func parseWindow(c *gin.Context, loc *time.Location) (time.Time, time.Time, error) {
	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		return windowFromTo(from, to, loc)
	}

	if date := c.Query("date"); date != "" {
		day, err := timezone.ParseDay(date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("invalid_date", "Data inválida.")
		}
		from, to := timezone.DayBounds(day, loc)
		return from, to, nil
	}

	yearStr, monthStr := c.Query("year"), c.Query("month")
	if yearStr == "" || monthStr == "" {
		return time.Time{}, time.Time{}, apperr.Validation("missing_period", "Informe date, from/to ou year/month.")
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		return time.Time{}, time.Time{}, apperr.Validation("invalid_year", "Ano inválido.")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, apperr.Validation("invalid_month", "Mês inválido.")
	}

	from, to := timezone.MonthBounds(time.Date(year, time.Month(month), 1, 12, 0, 0, 0, loc), loc)
	return from, to, nil
}

func windowFromTo(fromStr, toStr string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := parseInstant(fromStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseInstant(toStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, apperr.Validation("invalid_period", "Período inválido.")
	}
	return from, to, nil
}
