package counting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// lineaContada arma una línea con su conteo y campos derivados ya calculados,
// como quedaría tras pasar por ComputeVariance.
func lineaContada(system, counted, unitCost string) *entity.CycleCountItem {
	sys := d(system)
	cnt := d(counted)
	cost := d(unitCost)
	r := counting.ComputeVariance(cnt, sys, cost)
	return &entity.CycleCountItem{
		SystemQuantity:  sys,
		UnitCost:        cost,
		CountedQuantity: &cnt,
		Variance:        &r.Variance,
		VariancePercent: &r.VariancePercent,
		VarianceCost:    &r.VarianceCost,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario de referencia: 3 ítems, libros [10, 5, 0], contado [10, 4, 2],
// costos [2, 3, 1] → varianzas [0, -1, 2], 2 con varianza, costo neto -1.
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeAggregates_EscenarioReferencia(t *testing.T) {
	items := []*entity.CycleCountItem{
		lineaContada("10", "10", "2"),
		lineaContada("5", "4", "3"),
		lineaContada("0", "2", "1"),
	}

	agg := counting.ComputeAggregates(items)

	assert.Equal(t, 3, agg.TotalItems)
	assert.Equal(t, 3, agg.ItemsCounted)
	assert.Equal(t, 2, agg.ItemsWithVariance)
	assert.True(t, agg.TotalVarianceCost.Equal(d("-1")), "(-1*3) + (2*1) = -1, obtuvo %s", agg.TotalVarianceCost)
	assert.True(t, agg.PositiveVariance.Equal(d("2")), "sobrante: 2*1")
	assert.True(t, agg.NegativeVariance.Equal(d("-3")), "faltante: -1*3")

	require.NotNil(t, agg.AccuracyPercent)
	// 1 exacto de 3 contados.
	expected := d("1").Mul(d("100")).Div(d("3"))
	assert.True(t, agg.AccuracyPercent.Equal(expected), "exactitud = 100*(3-2)/3")
}

func TestComputeAggregates_SinLineasContadas(t *testing.T) {
	items := []*entity.CycleCountItem{
		{SystemQuantity: d("10"), UnitCost: d("1")},
		{SystemQuantity: d("4"), UnitCost: d("2")},
	}

	agg := counting.ComputeAggregates(items)

	assert.Equal(t, 2, agg.TotalItems)
	assert.Equal(t, 0, agg.ItemsCounted)
	assert.Equal(t, 0, agg.ItemsWithVariance)
	assert.True(t, agg.TotalVarianceCost.IsZero())
	assert.Nil(t, agg.AccuracyPercent, "exactitud indefinida sin lineas contadas")
}

func TestComputeAggregates_ConteoParcialIgnoraNoContadas(t *testing.T) {
	items := []*entity.CycleCountItem{
		lineaContada("8", "8", "5"),
		{SystemQuantity: d("3"), UnitCost: d("2")}, // sin contar
	}

	agg := counting.ComputeAggregates(items)

	assert.Equal(t, 2, agg.TotalItems)
	assert.Equal(t, 1, agg.ItemsCounted)
	assert.Equal(t, 0, agg.ItemsWithVariance)
	require.NotNil(t, agg.AccuracyPercent)
	assert.True(t, agg.AccuracyPercent.Equal(d("100")), "una linea contada exacta -> 100%%")
}

func TestAggregates_ApplyTo(t *testing.T) {
	items := []*entity.CycleCountItem{lineaContada("5", "4", "3")}
	agg := counting.ComputeAggregates(items)

	var c entity.CycleCount
	agg.ApplyTo(&c)

	assert.Equal(t, 1, c.TotalItems)
	assert.Equal(t, 1, c.ItemsCounted)
	assert.Equal(t, 1, c.ItemsWithVariance)
	assert.True(t, c.TotalVarianceCost.Equal(d("-3")))
	require.NotNil(t, c.AccuracyPercent)
	assert.True(t, c.AccuracyPercent.IsZero(), "una linea contada con varianza -> 0%% de exactitud")

	var zero decimal.Decimal
	assert.NotEqual(t, zero, c.NegativeVariance, "los buckets firmados tambien se copian")
}
