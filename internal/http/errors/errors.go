package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error { return e.Err }

// WithDetail agrega detalle. Devuelve una COPIA para no mutar los
// errores base globales.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

var (
	ErrBadRequest = &AppError{
		HTTPStatus: http.StatusBadRequest, Code: "bad_request", Message: "Invalid request"}
	ErrUnauthorized = &AppError{
		HTTPStatus: http.StatusUnauthorized, Code: "unauthorized", Message: "Authentication required"}
	ErrNotFound = &AppError{
		HTTPStatus: http.StatusNotFound, Code: "not_found", Message: "Resource not found"}
	ErrConflict = &AppError{
		HTTPStatus: http.StatusConflict, Code: "conflict", Message: "Resource already exists"}
	ErrInvalidTransition = &AppError{
		HTTPStatus: http.StatusConflict, Code: "invalid_transition", Message: "Illegal status transition"}
	ErrTenantInactive = &AppError{
		HTTPStatus: http.StatusConflict, Code: "tenant_inactive", Message: "Tenant is deactivated"}
	ErrIntegrity = &AppError{
		HTTPStatus: http.StatusConflict, Code: "integrity", Message: "Delete blocked by live references"}
	ErrStoreTimeout = &AppError{
		HTTPStatus: http.StatusGatewayTimeout, Code: "store_timeout", Message: "Storage backend timed out"}
	ErrInternalServerError = &AppError{
		HTTPStatus: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
)

// FromError convierte cualquier error en un AppError. Los sentinels del
// directorio se mapean a su status HTTP; lo desconocido es un 500 con la
// causa preservada para logs.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, core.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case errors.Is(err, core.ErrConflict):
		return ErrConflict.WithCause(err)
	case errors.Is(err, core.ErrInvalidTransition):
		return ErrInvalidTransition.WithCause(err)
	case errors.Is(err, core.ErrTenantInactive):
		return ErrTenantInactive.WithCause(err)
	case errors.Is(err, core.ErrIntegrity):
		return ErrIntegrity.WithCause(err)
	case errors.Is(err, core.ErrTimeout):
		return ErrStoreTimeout.WithCause(err)
	case errors.Is(err, core.ErrInvalid):
		return ErrBadRequest.WithCause(err).WithDetail(err.Error())
	}
	return ErrInternalServerError.WithCause(err)
}
