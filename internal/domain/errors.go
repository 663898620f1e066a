package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// ErrInvalidTransition es la base de InvalidTransitionError para poder hacer
// errors.Is sin conocer el estado concreto.
var ErrInvalidTransition = errors.New("transición de estado inválida")

// InvalidTransitionError indica que la acción pedida no es legal en el estado
// actual de la sesión de conteo. Siempre nombra el estado y la acción: las
// precondiciones fallidas nunca se responden con un error genérico.
type InvalidTransitionError struct {
	Status string // estado actual de la sesión
	Action string // acción solicitada (start, approve, ...)
	Reason string // precondición concreta que falló, opcional
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transición inválida: no se puede %s en estado %s (%s)", e.Action, e.Status, e.Reason)
	}
	return fmt.Sprintf("transición inválida: no se puede %s en estado %s", e.Action, e.Status)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ErrIncompleteCount base para IncompleteCountError.
var ErrIncompleteCount = errors.New("conteo incompleto")

// IncompleteCountError indica que se intentó enviar a revisión con líneas aún
// sin contar. Remaining enumera cuántas faltan.
type IncompleteCountError struct {
	Remaining int
	Total     int
}

func (e *IncompleteCountError) Error() string {
	return fmt.Sprintf("conteo incompleto: faltan %d de %d ítems por contar", e.Remaining, e.Total)
}

func (e *IncompleteCountError) Unwrap() error { return ErrIncompleteCount }

// ErrAdjustmentPublication base para PublicationError.
var ErrAdjustmentPublication = errors.New("fallo al publicar ajustes")

// PublicationError reporta el resultado parcial del publicador de ajustes.
// La sesión queda COMPLETED aun con fallos: el conteo es válido y el
// publicador es re-invocable; los ítems fallidos conservan
// adjustment_made = false y se reintentan.
type PublicationError struct {
	Created int
	Failed  int
	Errors  []error // un error por ítem fallido
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("publicación de ajustes incompleta: %d creados, %d fallidos", e.Created, e.Failed)
}

func (e *PublicationError) Unwrap() error { return ErrAdjustmentPublication }
