package counting

import (
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Aggregates estadísticas de sesión derivadas de las líneas. Se recalculan
// tras cada mutación de conteo y se congelan en la aprobación.
type Aggregates struct {
	TotalItems        int
	ItemsCounted      int
	ItemsWithVariance int
	TotalVarianceCost decimal.Decimal
	PositiveVariance  decimal.Decimal // suma de costos de varianza > 0 (sobrantes)
	NegativeVariance  decimal.Decimal // suma de costos de varianza < 0 (faltantes)
	AccuracyPercent   *decimal.Decimal // nil mientras no haya líneas contadas
}

// ComputeAggregates recorre las líneas y produce las estadísticas de sesión:
//
//	itemsCounted      = líneas con conteo registrado
//	itemsWithVariance = líneas con varianza != 0
//	totalVarianceCost = suma con signo de variance_cost
//	accuracyPercent   = 100 * (contadas - con varianza) / contadas
func ComputeAggregates(items []*entity.CycleCountItem) Aggregates {
	agg := Aggregates{
		TotalItems:        len(items),
		TotalVarianceCost: decimal.Zero,
		PositiveVariance:  decimal.Zero,
		NegativeVariance:  decimal.Zero,
	}
	for _, it := range items {
		if !it.IsCounted() {
			continue
		}
		agg.ItemsCounted++
		if it.HasVariance() {
			agg.ItemsWithVariance++
		}
		if it.VarianceCost != nil {
			agg.TotalVarianceCost = agg.TotalVarianceCost.Add(*it.VarianceCost)
			if it.VarianceCost.GreaterThan(decimal.Zero) {
				agg.PositiveVariance = agg.PositiveVariance.Add(*it.VarianceCost)
			} else if it.VarianceCost.LessThan(decimal.Zero) {
				agg.NegativeVariance = agg.NegativeVariance.Add(*it.VarianceCost)
			}
		}
	}
	if agg.ItemsCounted > 0 {
		exact := decimal.NewFromInt(int64(agg.ItemsCounted - agg.ItemsWithVariance))
		pct := exact.Mul(hundred).Div(decimal.NewFromInt(int64(agg.ItemsCounted)))
		agg.AccuracyPercent = &pct
	}
	return agg
}

// ApplyTo copia los agregados a la sesión.
func (a Aggregates) ApplyTo(c *entity.CycleCount) {
	c.TotalItems = a.TotalItems
	c.ItemsCounted = a.ItemsCounted
	c.ItemsWithVariance = a.ItemsWithVariance
	c.TotalVarianceCost = a.TotalVarianceCost
	c.PositiveVariance = a.PositiveVariance
	c.NegativeVariance = a.NegativeVariance
	c.AccuracyPercent = a.AccuracyPercent
}
