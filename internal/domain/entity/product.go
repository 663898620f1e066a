package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clases ABC de rotación: A = alta velocidad (se cuenta más seguido),
// C = baja. Las asigna un proceso externo de clasificación; aquí solo se
// consumen para armar el alcance de los conteos ABC_CLASS_*.
const (
	ABCClassA = "A"
	ABCClassB = "B"
	ABCClassC = "C"
)

// Product representa un producto o SKU del inventario (multi-bodega).
// Cost es el costo promedio ponderado usado para valorar ajustes; ABCClass
// y Active alimentan el selector de ítems de los conteos cíclicos.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	Cost        decimal.Decimal // costo promedio ponderado
	ABCClass    string          // A, B o C; vacío = sin clasificar
	UnitMeasure string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
