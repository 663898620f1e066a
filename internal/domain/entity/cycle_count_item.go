package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleCountItem es una línea del conteo: un producto (y opcionalmente un
// lote) dentro del alcance de la sesión.
//
// SystemQuantity y UnitCost son la foto del stock en libros tomada al iniciar
// el conteo (snapshot-lock). Después del lock son inmutables: el stock vivo
// sigue moviéndose durante el conteo y la comparación es siempre contra la
// foto, no contra el saldo actual.
//
// Los campos Variance* son derivados: nil mientras CountedQuantity sea nil,
// y consistentes con counting.ComputeVariance en cuanto se registra un conteo.
type CycleCountItem struct {
	ID           string
	CycleCountID string
	ProductID    string
	BatchID      *string // nil = sin lote

	SystemQuantity decimal.Decimal // cantidad en libros al momento del lock
	UnitCost       decimal.Decimal // costo de valoración al momento del lock

	CountedQuantity *decimal.Decimal // nil = aún sin contar
	CountedBy       *string
	CountedAt       *time.Time
	CountNotes      string

	Variance        *decimal.Decimal // CountedQuantity - SystemQuantity
	VariancePercent *decimal.Decimal
	VarianceCost    *decimal.Decimal // Variance * UnitCost

	// Guardia de idempotencia del ajuste contable: AdjustmentMade pasa a true
	// exactamente una vez, en la misma operación que crea el movimiento.
	AdjustmentMade bool
	AdjustmentID   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCounted informa si la línea ya tiene un conteo registrado.
func (i *CycleCountItem) IsCounted() bool {
	return i.CountedQuantity != nil
}

// HasVariance informa si la línea fue contada y la diferencia no es cero.
func (i *CycleCountItem) HasVariance() bool {
	return i.Variance != nil && !i.Variance.IsZero()
}
