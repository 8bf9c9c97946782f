// Package apierror defines the uniform error body returned by every
// endpoint: {name, message, action, status_code}. Handlers translate
// store and auth sentinels into these values; anything unrecognized
// becomes an InternalServerError.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Error is a client-facing API error.
type Error struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`
}

func (e *Error) Error() string { return e.Message }

// NewValidationError builds a 400 error for input the caller can correct.
func NewValidationError(message, action string) *Error {
	return &Error{
		Name:       "ValidationError",
		Message:    message,
		Action:     action,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUsernameTakenError reports a duplicate username.
func NewUsernameTakenError() *Error {
	return NewValidationError(
		"O username informado já está sendo utilizado.",
		"Utilize outro username para realizar esta operação.",
	)
}

// NewEmailTakenError reports a duplicate email.
func NewEmailTakenError() *Error {
	return NewValidationError(
		"O email informado já está sendo utilizado.",
		"Utilize outro email para realizar esta operação.",
	)
}

// NewUsernameNotFoundError reports an unknown username.
func NewUsernameNotFoundError() *Error {
	return &Error{
		Name:       "NotFoundError",
		Message:    "O username informado não foi encontrado no sistema.",
		Action:     "Verifique se o username está digitado corretamente.",
		StatusCode: http.StatusNotFound,
	}
}

// NewNoActiveSessionError covers every authentication failure on the
// session cookie. Absent and expired tokens produce the same body so the
// response never reveals which case occurred.
func NewNoActiveSessionError() *Error {
	return &Error{
		Name:       "UnauthorizedError",
		Message:    "Usuário não possui sessão ativa.",
		Action:     "Verifique se este usuário está logado e tente novamente.",
		StatusCode: http.StatusUnauthorized,
	}
}

// NewInvalidCredentialsError covers login failures. Unknown email and wrong
// password produce the same body.
func NewInvalidCredentialsError() *Error {
	return &Error{
		Name:       "UnauthorizedError",
		Message:    "Dados de autenticação não conferem.",
		Action:     "Verifique se os dados enviados estão corretos.",
		StatusCode: http.StatusUnauthorized,
	}
}

// NewInternalServerError wraps unexpected failures.
func NewInternalServerError() *Error {
	return &Error{
		Name:       "InternalServerError",
		Message:    "Um erro interno não esperado aconteceu.",
		Action:     "Entre em contato com o suporte.",
		StatusCode: http.StatusInternalServerError,
	}
}

// Write serializes err as the uniform JSON body. Errors that are not
// *Error are reported as InternalServerError.
func Write(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = NewInternalServerError()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.StatusCode)
	_ = json.NewEncoder(w).Encode(apiErr)
}
