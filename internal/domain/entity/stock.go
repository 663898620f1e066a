package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el saldo vivo de un producto en una bodega (por lote
// opcional). Es el "libro" contra el que se toma la foto al iniciar un
// conteo y al que se aplican los ajustes aprobados.
type Stock struct {
	ProductID   string
	WarehouseID string
	BatchID     *string // nil = sin lote
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
