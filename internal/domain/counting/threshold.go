package counting

import (
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Thresholds umbrales configurables para resaltar varianzas en revisión.
// La clasificación es informativa (filtrado, orden, resaltado); nunca bloquea
// una transición de la sesión.
type Thresholds struct {
	Percent decimal.Decimal // % absoluto de varianza tolerado
	Cost    decimal.Decimal // costo absoluto de varianza tolerado
}

// DefaultThresholds valores por defecto: 5% o 1000 de costo.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Percent: decimal.NewFromInt(5),
		Cost:    decimal.NewFromInt(1000),
	}
}

// Exceeds informa si la línea supera el umbral: hay varianza distinta de cero
// Y (|varianza%| > Percent O |costo de varianza| > Cost). Cualquiera de las
// dos cláusulas basta.
func (t Thresholds) Exceeds(item *entity.CycleCountItem) bool {
	if !item.HasVariance() {
		return false
	}
	if item.VariancePercent != nil && item.VariancePercent.Abs().GreaterThan(t.Percent) {
		return true
	}
	if item.VarianceCost != nil && item.VarianceCost.Abs().GreaterThan(t.Cost) {
		return true
	}
	return false
}
