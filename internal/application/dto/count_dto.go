package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpotItemRequest una línea elegida explícitamente para un conteo SPOT.
type SpotItemRequest struct {
	ProductID string  `json:"product_id"`
	BatchID   *string `json:"batch_id,omitempty"`
}

// CreateCountRequest body para POST /api/counts.
type CreateCountRequest struct {
	WarehouseID string            `json:"warehouse_id"`
	Type        string            `json:"type"` // FULL, ABC_CLASS_A/B/C, RANDOM, SPOT
	BlindCount  bool              `json:"blind_count"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Scope       []SpotItemRequest `json:"scope,omitempty"` // obligatorio solo para SPOT
}

// RecordCountRequest body para POST /api/counts/:id/items.
type RecordCountRequest struct {
	ProductID string          `json:"product_id"`
	BatchID   *string         `json:"batch_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes,omitempty"`
}

// RejectCountRequest body para POST /api/counts/:id/reject.
// ClearCounts = true fuerza recuento completo (resetea todas las líneas);
// false conserva los conteos previos. Es una decisión del revisor, nunca se
// infiere.
type RejectCountRequest struct {
	Reason      string `json:"reason"`
	ClearCounts bool   `json:"clear_counts"`
}

// CancelCountRequest body para POST /api/counts/:id/cancel.
type CancelCountRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ApproveCountResponse resultado de la aprobación: cuántos ajustes se
// crearon y cuántos fallaron. Si AdjustmentsFailed > 0 la sesión queda
// COMPLETED igualmente y los fallidos se reintentan vía retry-adjustments.
type ApproveCountResponse struct {
	CycleCountID       string   `json:"cycle_count_id"`
	AdjustmentsCreated int      `json:"adjustments_created"`
	AdjustmentsFailed  int      `json:"adjustments_failed"`
	Errors             []string `json:"errors,omitempty"`
}

// CountItemResponse una línea de la sesión con sus campos derivados.
// Los punteros van en null mientras la línea no se cuente. En conteo ciego,
// para roles sin revisión, system_quantity y los campos de varianza se
// omiten (asunto de presentación; el cálculo interno no cambia).
type CountItemResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	BatchID          *string          `json:"batch_id,omitempty"`
	SystemQuantity   *decimal.Decimal `json:"system_quantity,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	CountedQuantity  *decimal.Decimal `json:"counted_quantity,omitempty"`
	CountedBy        *string          `json:"counted_by,omitempty"`
	CountedAt        *time.Time       `json:"counted_at,omitempty"`
	Variance         *decimal.Decimal `json:"variance,omitempty"`
	VariancePercent  *decimal.Decimal `json:"variance_percent,omitempty"`
	VarianceCost     *decimal.Decimal `json:"variance_cost,omitempty"`
	ExceedsThreshold bool             `json:"exceeds_threshold"`
	AdjustmentMade   bool             `json:"adjustment_made"`
	AdjustmentID     *string          `json:"adjustment_id,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// CountResponse la sesión completa con progreso y resumen de varianza.
type CountResponse struct {
	ID          string     `json:"id"`
	CountNumber string     `json:"count_number"`
	WarehouseID string     `json:"warehouse_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	BlindCount  bool       `json:"blind_count"`
	Notes       string     `json:"notes,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`

	TotalItems        int              `json:"total_items"`
	ItemsCounted      int              `json:"items_counted"`
	ItemsWithVariance int              `json:"items_with_variance"`
	TotalVarianceCost decimal.Decimal  `json:"total_variance_cost"`
	PositiveVariance  decimal.Decimal  `json:"positive_variance"`
	NegativeVariance  decimal.Decimal  `json:"negative_variance"`
	AccuracyPercent   *decimal.Decimal `json:"accuracy_percent,omitempty"`

	Items []CountItemResponse `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CountListResponse listado paginado de sesiones (sin líneas).
type CountListResponse struct {
	Items []CountResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
