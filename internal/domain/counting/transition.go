// Package counting contiene los servicios de dominio puros del motor de
// conteo cíclico: la tabla de transiciones de estado, el cálculo de varianza,
// la clasificación por umbral y las estadísticas de exactitud. Ningún archivo
// de este paquete toca persistencia ni transporte.
package counting

import (
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// Acciones sobre una sesión de conteo.
const (
	ActionStart   = "start"
	ActionCount   = "count" // registrar/corregir una línea
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionCancel  = "cancel"
)

// transitions es la tabla de transiciones legales: estado → acciones
// permitidas y estado resultante. Representar la máquina como datos evita
// banderas booleanas dispersas (canStart, canApprove, ...).
// Una entrada con destino igual al origen (count) es una mutación interna
// que no cambia de estado.
var transitions = map[string]map[string]string{
	entity.CountStatusDraft: {
		ActionStart:  entity.CountStatusInProgress,
		ActionCancel: entity.CountStatusCancelled,
	},
	entity.CountStatusScheduled: {
		ActionStart:  entity.CountStatusInProgress,
		ActionCancel: entity.CountStatusCancelled,
	},
	entity.CountStatusInProgress: {
		ActionCount:  entity.CountStatusInProgress,
		ActionSubmit: entity.CountStatusPendingReview,
		ActionCancel: entity.CountStatusCancelled,
	},
	entity.CountStatusPendingReview: {
		ActionApprove: entity.CountStatusCompleted,
		ActionReject:  entity.CountStatusInProgress,
		ActionCancel:  entity.CountStatusCancelled,
	},
	// COMPLETED y CANCELLED son terminales: sin entradas.
}

// NextStatus resuelve (estado, acción) → nuevo estado consultando la tabla.
// Devuelve InvalidTransitionError si la acción no es legal en ese estado;
// nunca hace no-op silencioso.
func NextStatus(status, action string) (string, error) {
	allowed, ok := transitions[status]
	if !ok {
		return "", &domain.InvalidTransitionError{Status: status, Action: action, Reason: "estado terminal"}
	}
	next, ok := allowed[action]
	if !ok {
		return "", &domain.InvalidTransitionError{Status: status, Action: action}
	}
	return next, nil
}

// CanTransition valida sin resolver el destino. Útil para guardas previas.
func CanTransition(status, action string) error {
	_, err := NextStatus(status, action)
	return err
}

// ValidStatus informa si s es uno de los estados conocidos.
func ValidStatus(s string) bool {
	switch s {
	case entity.CountStatusDraft, entity.CountStatusScheduled, entity.CountStatusInProgress,
		entity.CountStatusPendingReview, entity.CountStatusCompleted, entity.CountStatusCancelled:
		return true
	}
	return false
}

// ValidCountType informa si t es uno de los tipos de conteo conocidos.
func ValidCountType(t string) bool {
	switch t {
	case entity.CountTypeFull, entity.CountTypeABCClassA, entity.CountTypeABCClassB,
		entity.CountTypeABCClassC, entity.CountTypeRandom, entity.CountTypeSpot:
		return true
	}
	return false
}
