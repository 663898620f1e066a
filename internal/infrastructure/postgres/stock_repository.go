package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
//
// La clave lógica es (product_id, warehouse_id, batch_id) con batch_id
// nullable; las comparaciones usan IS NOT DISTINCT FROM para que NULL = NULL
// cuente como la misma fila.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo actual de un producto en una bodega (por lote opcional).
// Sin fila el saldo es cero, no un error: un producto nunca movido existe con
// cantidad 0.
func (r *StockRepo) Get(productID, warehouseID string, batchID *string) (*entity.Stock, error) {
	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id IS NOT DISTINCT FROM $3`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, productID, warehouseID, batchID).Scan(
		&s.ProductID, &s.WarehouseID, &s.BatchID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, BatchID: batchID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza el saldo (por producto, bodega y lote).
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id, batch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		stock.ProductID, stock.WarehouseID, stock.BatchID, stock.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE). El
// publicador de ajustes lo usa para aplicar la varianza sobre el saldo vivo
// sin pisarse con otros movimientos concurrentes.
func (r *StockRepo) GetForUpdate(productID, warehouseID string, batchID *string) (*entity.Stock, error) {
	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id IS NOT DISTINCT FROM $3
		FOR UPDATE`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, productID, warehouseID, batchID).Scan(
		&s.ProductID, &s.WarehouseID, &s.BatchID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, BatchID: batchID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}
