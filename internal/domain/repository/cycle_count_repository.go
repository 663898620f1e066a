package repository

import "github.com/jhoicas/Conteos-api/internal/domain/entity"

// CycleCountRepository define el puerto de persistencia para la sesión de
// conteo y sus líneas. Dentro de transacciones se usa con repos atados a la
// tx (ver postgres.TxRunner) para que las guardas de estado sean atómicas.
type CycleCountRepository interface {
	// Create persiste la sesión junto con sus líneas iniciales (pre-lock:
	// cantidades de sistema aún sin significado).
	Create(count *entity.CycleCount, items []*entity.CycleCountItem) error

	GetByID(id string) (*entity.CycleCount, error)

	// GetForUpdate obtiene la sesión bloqueando su fila (SELECT FOR UPDATE).
	// Toda transición de estado la usa para el check-and-set atómico sobre
	// status: dos approve simultáneos serializan aquí y el segundo ve el
	// estado ya cambiado.
	GetForUpdate(id string) (*entity.CycleCount, error)

	// UpdateSession persiste status, timestamps, aprobador y agregados.
	// Nunca toca las líneas.
	UpdateSession(count *entity.CycleCount) error

	ListByCompany(companyID, status string, limit, offset int) ([]*entity.CycleCount, error)

	// ListItems devuelve las líneas de la sesión en orden estable.
	ListItems(cycleCountID string) ([]*entity.CycleCountItem, error)

	GetItem(cycleCountID, productID string, batchID *string) (*entity.CycleCountItem, error)

	// LockItemSnapshot escribe system_quantity y unit_cost de una línea.
	// Se invoca exactamente una vez por línea, al iniciar la sesión; ningún
	// otro método del repositorio escribe esas columnas.
	LockItemSnapshot(item *entity.CycleCountItem) error

	// UpdateItemCount persiste conteo y campos de varianza de la línea en un
	// solo statement: ningún lector ve counted_quantity nuevo con varianza
	// vieja.
	UpdateItemCount(item *entity.CycleCountItem) error

	// ClearItemCounts resetea conteo y derivados de TODAS las líneas de la
	// sesión (rechazo con recuento completo).
	ClearItemCounts(cycleCountID string) error

	// MarkItemAdjusted estampa adjustment_made/adjustment_id con un UPDATE
	// condicionado a adjustment_made = false. Devuelve false si la línea ya
	// estaba ajustada: el publicador la salta sin crear un segundo asiento.
	MarkItemAdjusted(itemID, adjustmentID string) (bool, error)
}
