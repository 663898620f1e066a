package counting

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// VarianceResult es el resultado del cálculo de varianza de una línea contada.
type VarianceResult struct {
	Variance        decimal.Decimal // contado - en libros
	VariancePercent decimal.Decimal
	VarianceCost    decimal.Decimal // varianza * costo unitario
}

// ComputeVariance calcula varianza, varianza% y costo de la varianza para una
// línea contada. Es determinista e idempotente: mismas entradas, mismo
// resultado, así el recálculo tras corregir un conteo es seguro.
//
//	variance        = counted - system
//	variancePercent = system != 0 ? variance/system*100
//	                              : (counted > 0 ? 100 : 0)   // libro en cero
//	varianceCost    = variance * unitCost
func ComputeVariance(counted, system, unitCost decimal.Decimal) VarianceResult {
	variance := counted.Sub(system)

	var pct decimal.Decimal
	if !system.IsZero() {
		pct = variance.Div(system).Mul(hundred)
	} else if counted.GreaterThan(decimal.Zero) {
		// Línea nunca vista en libros pero con existencia física: 100% por convención.
		pct = hundred
	} else {
		pct = decimal.Zero
	}

	return VarianceResult{
		Variance:        variance,
		VariancePercent: pct,
		VarianceCost:    variance.Mul(unitCost),
	}
}
