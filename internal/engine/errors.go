package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for every failure the engine can surface. Each carries a
// stable machine code via Code so the HTTP layer can map to status codes
// without string matching.
var (
	ErrValidation        = errors.New("VALIDACION")
	ErrInvalidTransition = errors.New("TRANSICION_INVALIDA")
	ErrCapacityExceeded  = errors.New("CAPACIDAD_EXCEDIDA")
	ErrTokenConflict     = errors.New("TARJETA_EN_USO")
	ErrNotFound          = errors.New("NO_ENCONTRADO")
	ErrAlreadyCompleted  = errors.New("REGISTRO_COMPLETADO")
	ErrHeadcountMismatch = errors.New("PERSONAS_NO_COINCIDEN")
	ErrStorage           = errors.New("ALMACENAMIENTO")
)

// Code extracts the machine-readable code from an engine error. Unknown
// errors report as storage failures, which are the only retriable kind.
func Code(err error) string {
	for _, sentinel := range []error{
		ErrValidation, ErrInvalidTransition, ErrCapacityExceeded,
		ErrTokenConflict, ErrNotFound, ErrAlreadyCompleted,
		ErrHeadcountMismatch, ErrStorage,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrStorage.Error()
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storagef(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
