// Package validators valida os payloads recebidos pela API.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/httperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/timezone"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// nomes de campo no erro seguem o json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		return timezone.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("material_unit", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case models.UnitMilliliter, models.UnitCount, models.UnitGram:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "scheduled", "confirmed", "completed", "canceled", "no_show":
			return true
		}
		return false
	})

	return v
}

// Struct valida s e devolve um ValidationError com a primeira falha.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid_request", "Dados inválidos.")
	}
	return apperr.Validation("invalid_request", describe(verrs[0]))
}

// Var valida um valor solto com uma tag.
func Var(v any, tag string) error {
	return validate.Var(v, tag)
}

// Bind lê o JSON e valida. Em caso de erro já responde 400 e devolve false.
func Bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return false
	}
	if err := Struct(obj); err != nil {
		var ve *apperr.ValidationError
		errors.As(err, &ve)
		httperr.BadRequest(c, ve.Code, ve.Message)
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Campo %s é obrigatório.", field)
	case "email":
		return "E-mail inválido."
	case "min":
		return fmt.Sprintf("Campo %s deve ser no mínimo %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("Campo %s deve ser no máximo %s.", field, fe.Param())
	case "gte", "gt", "lte", "lt":
		return fmt.Sprintf("Campo %s fora do intervalo permitido.", field)
	case "oneof", "status":
		return fmt.Sprintf("Valor inválido para %s.", field)
	case "timezone":
		return "Fuso horário inválido."
	case "material_unit":
		return "Unidade de medida inválida."
	}
	return fmt.Sprintf("Campo %s inválido.", field)
}
