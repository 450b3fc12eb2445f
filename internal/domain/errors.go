package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrValidation         = errors.New("entrada inválida")
	ErrPreconditionFailed = errors.New("precondición no cumplida")
	ErrRemote             = errors.New("fallo del servicio de datos")
	ErrConfiguration      = errors.New("error de configuración")
)

// ValidationError error de validación a nivel de campo (pre-flight, sin llamada remota).
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un error de validación para el campo indicado.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap permite errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// RemoteError fallo reportado por el colaborador de datos (red, rechazo del servidor, registro inexistente).
// Message se muestra al usuario tal cual cuando el colaborador lo provee.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + ErrRemote.Error()
}

// Is permite errors.Is(err, ErrRemote) además de la cadena envuelta en Err.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

func (e *RemoteError) Unwrap() error { return e.Err }

// UserMessage mensaje apto para el usuario: el del colaborador si existe.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrRemote.Error()
}
