package httperr

import "errors"

// BusinessError é a falha de regra dos cadastros (auth, catálogo).
// O código vira o error_code da resposta.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func (e BusinessError) BusinessCode() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
