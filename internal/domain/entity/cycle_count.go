package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de conteo cíclico: qué subconjunto del catálogo entra en el alcance.
const (
	CountTypeFull      = "FULL"        // todos los productos activos de la bodega
	CountTypeABCClassA = "ABC_CLASS_A" // productos clase A (alta rotación)
	CountTypeABCClassB = "ABC_CLASS_B"
	CountTypeABCClassC = "ABC_CLASS_C"
	CountTypeRandom    = "RANDOM" // muestra aleatoria
	CountTypeSpot      = "SPOT"   // subconjunto elegido explícitamente
)

// Estados del ciclo de vida de un conteo. Las transiciones legales viven en
// internal/domain/counting (tabla de transiciones), no aquí.
const (
	CountStatusDraft         = "DRAFT"
	CountStatusScheduled     = "SCHEDULED"
	CountStatusInProgress    = "IN_PROGRESS"
	CountStatusPendingReview = "PENDING_REVIEW"
	CountStatusCompleted     = "COMPLETED"
	CountStatusCancelled     = "CANCELLED"
)

// CycleCount representa una sesión de conteo físico de inventario contra el
// stock en libros. Los campos agregados (TotalItems, ItemsCounted, etc.) son
// derivados: se recalculan desde los ítems y nunca se editan a mano.
type CycleCount struct {
	ID          string
	CompanyID   string
	WarehouseID string
	CountNumber string // identificador legible, ej. CC-20260105-A3F2
	Type        string // ver constantes CountType*
	Status      string // ver constantes CountStatus*
	BlindCount  bool   // true = no mostrar cantidad en libros al contador (solo presentación)
	Notes       string

	ScheduledAt *time.Time // se fija una sola vez, antes de iniciar
	StartedAt   *time.Time // se fija al pasar a IN_PROGRESS
	CompletedAt *time.Time // se fija al aprobar

	CreatedBy  string
	ApprovedBy *string // nil hasta la aprobación

	// Agregados derivados de los ítems.
	TotalItems        int
	ItemsCounted      int
	ItemsWithVariance int
	TotalVarianceCost decimal.Decimal // suma con signo de variance_cost
	PositiveVariance  decimal.Decimal // suma de variance_cost > 0 (sobrantes)
	NegativeVariance  decimal.Decimal // suma de variance_cost < 0 (faltantes)
	AccuracyPercent   *decimal.Decimal // nil mientras ItemsCounted == 0

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal informa si la sesión ya no admite mutación alguna.
func (c *CycleCount) IsTerminal() bool {
	return c.Status == CountStatusCompleted || c.Status == CountStatusCancelled
}
