package validators

import (
	"strings"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
)

// NormalizeEmail devolve o e-mail em minúsculas, sem espaços, se for válido.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := Var(email, "required,email"); err != nil {
		return "", apperr.Validation("invalid_email", "E-mail inválido.")
	}
	return email, nil
}
