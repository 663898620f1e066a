package repository

import "github.com/jhoicas/Conteos-api/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar el saldo vivo
// por bodega+producto(+lote). Usado dentro de transacciones para garantizar
// consistencia: la foto al iniciar un conteo y el ajuste al aprobarlo pasan
// por aquí.
type StockRepository interface {
	Get(productID, warehouseID string, batchID *string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(productID, warehouseID string, batchID *string) (*entity.Stock, error)
}
