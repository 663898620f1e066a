package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"         // entrada
	MovementTypeOUT        = "OUT"        // salida
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste por conteo físico
)

// InventoryMovement representa un asiento del libro de inventario. Los
// ajustes de conteo llevan Reference = ID de la sesión de conteo y Quantity
// con el signo de la varianza (positivo sobrante, negativo faltante).
type InventoryMovement struct {
	ID          string
	ProductID   string
	WarehouseID string
	BatchID     *string
	Type        string
	Quantity    decimal.Decimal // con signo
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	Reference   string // documento origen: sesión de conteo, factura, etc.
	Notes       string
	Date        time.Time
	CreatedAt   time.Time
	CreatedBy   string
}
