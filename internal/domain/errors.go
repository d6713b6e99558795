package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrNotComputed  = errors.New("cálculo aún no disponible")

	ErrInvalidCredentials = errors.New("credenciales inválidas")
)

// ValidationError dato de costo o tasa rechazado antes de llegar al motor (carga manual o masiva).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ResolutionError la base de costo no se pudo resolver ni con los valores por defecto.
// Es fatal para la línea: no se reintenta.
type ResolutionError struct {
	LineID string
	Field  string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolución de costos línea %s: %s: %s", e.LineID, e.Field, e.Reason)
}

// TransientStoreError fallo de escritura (upsert o agregados) que se puede reintentar.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("almacenamiento (%s): %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// NewTransient envuelve err como TransientStoreError salvo que ya lo sea.
func NewTransient(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientStoreError
	if errors.As(err, &te) {
		return err
	}
	return &TransientStoreError{Op: op, Err: err}
}

// IsFatal indica si el error no debe reintentarse: línea inexistente, base de costo
// irresoluble o entrada inválida.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var re *ResolutionError
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) || errors.As(err, &re) || errors.As(err, &ve)
}
