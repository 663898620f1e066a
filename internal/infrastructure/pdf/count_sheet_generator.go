// Package pdf implementa la hoja de conteo imprimible que los contadores
// llevan a la bodega.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° de conteo + tipo  │  Bodega + fecha             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Lote | [En libros] | Contado | Obs │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: Contado por ____  Fecha ____  Firma ____           │
//	└─────────────────────────────────────────────────────────────┘
//
// En conteo ciego la columna "En libros" se omite completa: el contador
// anota sin ver el saldo esperado.
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appcounting "github.com/jhoicas/Conteos-api/internal/application/counting"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// CountSheetGenerator implementa counting.SheetGenerator usando Maroto v2.
type CountSheetGenerator struct{}

var _ appcounting.SheetGenerator = (*CountSheetGenerator)(nil)

// NewCountSheetGenerator construye el generador.
func NewCountSheetGenerator() *CountSheetGenerator { return &CountSheetGenerator{} }

// GenerateCountSheet genera el PDF de la hoja y devuelve sus bytes.
func (g *CountSheetGenerator) GenerateCountSheet(_ context.Context, data *appcounting.SheetData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de Conteo "+data.CountNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow(data.Blind))
	for _, l := range data.Lines {
		m.AddRows(lineRow(l, data.Blind))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de conteo: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: N° de conteo + tipo (izq) y bodega + fecha de impresión (der).
func headerRow(data *appcounting.SheetData) core.Row {
	titulo := "Conteo " + data.CountNumber
	if data.Blind {
		titulo += " (ciego)"
	}
	return row.New(16).Add(
		col.New(7).Add(
			text.New(titulo, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tipo: "+data.CountType, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Bodega: "+data.WarehouseName, props.Text{
				Size: 10, Align: align.Right, Top: 2,
			}),
			text.New("Impreso: "+time.Now().Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow(blind bool) core.Row {
	bold := props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary}
	cols := []core.Col{
		col.New(2).Add(text.New("SKU", bold)),
		col.New(widthName(blind)).Add(text.New("Producto", bold)),
		col.New(2).Add(text.New("Lote", bold)),
	}
	if !blind {
		cols = append(cols, col.New(2).Add(text.New("En libros", props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Align: align.Right,
		})))
	}
	cols = append(cols, col.New(2).Add(text.New("Contado", props.Text{
		Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Align: align.Right,
	})))
	return row.New(7).Add(cols...)
}

func lineRow(l appcounting.SheetLine, blind bool) core.Row {
	normal := props.Text{Size: 8, Top: 1}
	batch := l.BatchID
	if batch == "" {
		batch = "-"
	}
	cols := []core.Col{
		col.New(2).Add(text.New(l.SKU, normal)),
		col.New(widthName(blind)).Add(text.New(l.Name, normal)),
		col.New(2).Add(text.New(batch, normal)),
	}
	if !blind {
		qty := ""
		if l.SystemQuantity != nil {
			qty = l.SystemQuantity.String()
		}
		cols = append(cols, col.New(2).Add(text.New(qty, props.Text{Size: 8, Top: 1, Align: align.Right})))
	}
	// Columna "Contado" en blanco, para anotar a mano.
	cols = append(cols, col.New(2).Add(text.New("________", props.Text{
		Size: 8, Top: 1, Align: align.Right, Color: colorGray,
	})))
	return row.New(6).Add(cols...)
}

// widthName da más espacio al nombre del producto cuando no hay columna de libros.
func widthName(blind bool) int {
	if blind {
		return 6
	}
	return 4
}

func footerRow() core.Row {
	gray := props.Text{Size: 9, Top: 4, Color: colorGray}
	return row.New(14).Add(
		col.New(4).Add(text.New("Contado por: ______________________", gray)),
		col.New(4).Add(text.New("Fecha: ____________", gray)),
		col.New(4).Add(text.New("Firma: ______________________", gray)),
	)
}
