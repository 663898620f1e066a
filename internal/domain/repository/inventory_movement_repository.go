package repository

import (
	"time"

	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para asientos
// del libro de inventario.
type InventoryMovementRepository interface {
	Create(movement *entity.InventoryMovement) error
	GetByID(id string) (*entity.InventoryMovement, error)
	// ListByReference devuelve los asientos de un documento origen
	// (ej. los ajustes publicados por una sesión de conteo).
	ListByReference(reference string) ([]*entity.InventoryMovement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
}
