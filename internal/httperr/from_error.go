package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
)

// Postgres SQLSTATE
const (
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
	pgUniqueViolation    = "23505"
)

// mensagens dos códigos de cadastro conhecidos
var businessMessages = map[string]string{
	"email_already_registered": "E-mail já cadastrado.",
	"slug_already_taken":       "Esse endereço já está em uso.",
	"invalid_credentials":      "E-mail ou senha inválidos.",
	"not_found":                "Registro não encontrado.",
	"appointment_not_found":    "Agendamento não encontrado.",
	"client_not_found":         "Cliente não encontrado.",
	"service_not_found":        "Serviço não encontrado.",
	"material_not_found":       "Material não encontrado.",
	"reward_not_found":         "Recompensa não encontrada.",
	"business_not_found":       "Estabelecimento não encontrado.",
}

func IsExclusionConflict(err error) bool {
	return pgCode(err) == pgExclusionViolation
}

func IsCheckViolation(err error) bool {
	return pgCode(err) == pgCheckViolation
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// FromError escreve a resposta de qualquer erro vindo de um caso de uso.
// Erros fora da taxonomia viram 500 e são logados.
func FromError(c *gin.Context, err error) {
	var (
		transition *apperr.InvalidTransitionError
		immutable  *apperr.ImmutableStateError
		stock      *apperr.InsufficientStockError
		consumed   *apperr.ConsumptionRecordedError
		validation *apperr.ValidationError
		network    *apperr.NetworkError
		business   BusinessError
	)

	switch {
	case errors.As(err, &transition):
		Unprocessable(c, transition.BusinessCode(), fmt.Sprintf(
			"Não é possível mudar o status de %s para %s.",
			statusLabel(transition.From), statusLabel(transition.To),
		))

	case errors.As(err, &immutable):
		Unprocessable(c, immutable.BusinessCode(), fmt.Sprintf(
			"Agendamento %s não pode ser alterado.", statusLabel(immutable.Status),
		))

	case errors.As(err, &stock):
		Unprocessable(c, stock.BusinessCode(), fmt.Sprintf(
			"Estoque insuficiente de %s: disponível %s, solicitado %s.",
			stock.Material, stock.Available.String(), stock.Requested.String(),
		))

	// antes de network: o erro embrulhado costuma ser de rede
	case errors.As(err, &consumed):
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("completion failed after consumption")
		Conflict(c, consumed.BusinessCode(),
			"Materiais já registrados; conclua o atendimento sem informar os materiais novamente.")

	case errors.As(err, &validation):
		code := validation.BusinessCode()
		if strings.HasSuffix(code, "_not_found") {
			NotFound(c, code, validation.Error())
			return
		}
		Unprocessable(c, code, validation.Error())

	case errors.As(err, &network):
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("remote unavailable")
		Write(c, http.StatusBadGateway, network.BusinessCode(),
			"Falha de comunicação com o serviço de agendamentos. Tente novamente.")

	case errors.As(err, &business):
		msg, ok := businessMessages[business.Code]
		if !ok {
			msg = "Operação não permitida."
		}
		switch {
		case strings.HasSuffix(business.Code, "not_found"):
			NotFound(c, business.Code, msg)
		case business.Code == "invalid_credentials":
			Unauthorized(c, business.Code, msg)
		case strings.HasSuffix(business.Code, "already_registered"), strings.HasSuffix(business.Code, "already_taken"):
			Conflict(c, business.Code, msg)
		default:
			BadRequest(c, business.Code, msg)
		}

	case IsExclusionConflict(err):
		Conflict(c, "time_conflict", "Já existe um agendamento nesse horário.")

	case IsCheckViolation(err):
		Unprocessable(c, "invalid_data", "Dados inválidos.")

	case IsUniqueViolation(err):
		Conflict(c, "duplicate", "Registro duplicado.")

	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled error")
		Internal(c, "internal_error", "Erro interno.")
	}
}

func statusLabel(s string) string {
	switch s {
	case "scheduled":
		return "agendado"
	case "confirmed":
		return "confirmado"
	case "completed":
		return "concluído"
	case "canceled":
		return "cancelado"
	case "no_show":
		return "não compareceu"
	default:
		return s
	}
}
