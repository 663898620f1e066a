package counting

import (
	"context"

	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// conteos: el snapshot-lock del inicio, cada transición de estado y cada
// ajuste publicado corren completos o no corren.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		countRepo repository.CycleCountRepository,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// SheetGenerator genera la hoja de conteo imprimible de una sesión.
// blind = true omite la columna de cantidad en libros (conteo ciego es un
// asunto de presentación: el cálculo no cambia). La implementación vive en
// infrastructure/pdf.
type SheetGenerator interface {
	GenerateCountSheet(ctx context.Context, data *SheetData) ([]byte, error)
}

// Capabilities es el oráculo booleano de permisos que consulta el motor
// antes de mutar estado. El motor rechaza acciones no autorizadas pero no
// implementa la lógica de autorización: se inyecta.
type Capabilities interface {
	Allows(role, action string) bool
}
