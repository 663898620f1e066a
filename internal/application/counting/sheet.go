package counting

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

// SheetLine una línea de la hoja de conteo imprimible.
type SheetLine struct {
	SKU            string
	Name           string
	UnitMeasure    string
	BatchID        string           // vacío = sin lote
	SystemQuantity *decimal.Decimal // nil en hoja ciega
}

// SheetData datos que recibe el generador de la hoja.
type SheetData struct {
	CountNumber   string
	WarehouseName string
	CountType     string
	Blind         bool
	Lines         []SheetLine
}

// SheetUseCase arma la hoja de conteo imprimible de una sesión: las líneas
// en alcance con una columna en blanco para anotar lo contado. En conteo
// ciego la hoja omite la cantidad en libros (el cálculo no cambia; es solo
// presentación).
type SheetUseCase struct {
	countRepo     repository.CycleCountRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	generator     SheetGenerator
}

// NewSheetUseCase construye el caso de uso.
func NewSheetUseCase(
	countRepo repository.CycleCountRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	generator SheetGenerator,
) *SheetUseCase {
	return &SheetUseCase{
		countRepo:     countRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		generator:     generator,
	}
}

// Generate produce el PDF de la hoja de conteo.
func (uc *SheetUseCase) Generate(ctx context.Context, id, companyID, role string) ([]byte, error) {
	count, err := uc.countRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if count == nil || count.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	items, err := uc.countRepo.ListItems(id)
	if err != nil {
		return nil, err
	}
	wh, err := uc.warehouseRepo.GetByID(count.WarehouseID)
	if err != nil {
		return nil, err
	}
	warehouseName := count.WarehouseID
	if wh != nil {
		warehouseName = wh.Name
	}

	blind := blindHidesBook(count, role)
	data := &SheetData{
		CountNumber:   count.CountNumber,
		WarehouseName: warehouseName,
		CountType:     count.Type,
		Blind:         blind,
		Lines:         make([]SheetLine, 0, len(items)),
	}
	for _, it := range items {
		line := SheetLine{SKU: it.ProductID, Name: it.ProductID}
		if product, err := uc.productRepo.GetByID(it.ProductID); err == nil && product != nil {
			line.SKU = product.SKU
			line.Name = product.Name
			line.UnitMeasure = product.UnitMeasure
		}
		if it.BatchID != nil {
			line.BatchID = *it.BatchID
		}
		if !blind {
			sysQty := it.SystemQuantity
			line.SystemQuantity = &sysQty
		}
		data.Lines = append(data.Lines, line)
	}
	return uc.generator.GenerateCountSheet(ctx, data)
}
