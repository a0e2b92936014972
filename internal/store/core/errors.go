package core

import "errors"

var (
	// ErrNotFound indica que el registro solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica una violación de unicidad o una actualización
	// concurrente (el rev del registro cambió por debajo).
	ErrConflict = errors.New("conflict")

	// ErrInvalid indica que los datos de entrada son inválidos.
	ErrInvalid = errors.New("invalid input")

	// ErrInvalidTransition indica un cambio de estado ilegal en una
	// client version (la máquina de estados es monotónica).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTenantInactive indica una operación contra un tenant desactivado.
	ErrTenantInactive = errors.New("tenant inactive")

	// ErrIntegrity indica un delete bloqueado por referencias vivas.
	ErrIntegrity = errors.New("integrity violation")

	// ErrTimeout indica que el backend no respondió dentro del plazo.
	// La capa de directorio nunca reintenta; eso es del caller.
	ErrTimeout = errors.New("store timeout")

	// ErrNotImplemented indica que el driver no implementa la operación.
	ErrNotImplemented = errors.New("not implemented")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsTimeout verifica si el error es ErrTimeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }
