package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

var _ repository.CycleCountRepository = (*CycleCountRepo)(nil)

const countColumns = `id, company_id, warehouse_id, count_number, type, status, blind_count, notes,
	scheduled_at, started_at, completed_at, created_by, approved_by,
	total_items, items_counted, items_with_variance,
	total_variance_cost, positive_variance, negative_variance, accuracy_percent,
	created_at, updated_at`

const itemColumns = `id, cycle_count_id, product_id, batch_id,
	system_quantity, unit_cost,
	counted_quantity, counted_by, counted_at, count_notes,
	variance, variance_percent, variance_cost,
	adjustment_made, adjustment_id,
	created_at, updated_at`

// CycleCountRepo implementación de CycleCountRepository sobre PostgreSQL
// (usable con pool o tx). Las guardas de concurrencia del motor viven aquí:
// GetForUpdate bloquea la fila de la sesión y MarkItemAdjusted es el
// check-and-set de idempotencia de los ajustes.
type CycleCountRepo struct {
	q Querier
}

// NewCycleCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCycleCountRepository(q Querier) *CycleCountRepo {
	return &CycleCountRepo{q: q}
}

// Create persiste la sesión y sus líneas iniciales.
func (r *CycleCountRepo) Create(count *entity.CycleCount, items []*entity.CycleCountItem) error {
	query := `
		INSERT INTO cycle_counts (` + countColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(context.Background(), query,
		count.ID, count.CompanyID, count.WarehouseID, count.CountNumber, count.Type,
		count.Status, count.BlindCount, count.Notes,
		count.ScheduledAt, count.StartedAt, count.CompletedAt, count.CreatedBy, count.ApprovedBy,
		count.TotalItems, count.ItemsCounted, count.ItemsWithVariance,
		count.TotalVarianceCost, count.PositiveVariance, count.NegativeVariance, count.AccuracyPercent,
		count.CreatedAt, count.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cycle count: %w", err)
	}

	itemQuery := `
		INSERT INTO cycle_count_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, it := range items {
		_, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, it.CycleCountID, it.ProductID, it.BatchID,
			it.SystemQuantity, it.UnitCost,
			it.CountedQuantity, it.CountedBy, it.CountedAt, it.CountNotes,
			it.Variance, it.VariancePercent, it.VarianceCost,
			it.AdjustmentMade, it.AdjustmentID,
			it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert cycle count item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una sesión por ID.
func (r *CycleCountRepo) GetByID(id string) (*entity.CycleCount, error) {
	query := `SELECT ` + countColumns + ` FROM cycle_counts WHERE id = $1`
	c, err := scanCount(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cycle count: %w", err)
	}
	return c, nil
}

// GetForUpdate obtiene la sesión bloqueando su fila (SELECT FOR UPDATE).
// Dos transiciones simultáneas serializan aquí; la segunda ve el estado ya
// cambiado y la tabla de transiciones la rechaza.
func (r *CycleCountRepo) GetForUpdate(id string) (*entity.CycleCount, error) {
	query := `SELECT ` + countColumns + ` FROM cycle_counts WHERE id = $1 FOR UPDATE`
	c, err := scanCount(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cycle count for update: %w", err)
	}
	return c, nil
}

// UpdateSession persiste estado, timestamps, aprobador y agregados de la
// sesión. No toca las líneas.
func (r *CycleCountRepo) UpdateSession(count *entity.CycleCount) error {
	query := `
		UPDATE cycle_counts SET
			status = $2, notes = $3,
			scheduled_at = $4, started_at = $5, completed_at = $6, approved_by = $7,
			total_items = $8, items_counted = $9, items_with_variance = $10,
			total_variance_cost = $11, positive_variance = $12, negative_variance = $13,
			accuracy_percent = $14, updated_at = $15
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		count.ID, count.Status, count.Notes,
		count.ScheduledAt, count.StartedAt, count.CompletedAt, count.ApprovedBy,
		count.TotalItems, count.ItemsCounted, count.ItemsWithVariance,
		count.TotalVarianceCost, count.PositiveVariance, count.NegativeVariance,
		count.AccuracyPercent, count.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cycle count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista sesiones por empresa, opcionalmente filtradas por
// estado, de la más reciente a la más vieja.
func (r *CycleCountRepo) ListByCompany(companyID, status string, limit, offset int) ([]*entity.CycleCount, error) {
	query := `SELECT ` + countColumns + ` FROM cycle_counts WHERE company_id = $1`
	args := []any{companyID}
	pos := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycle counts: %w", err)
	}
	defer rows.Close()
	var list []*entity.CycleCount
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle count: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListItems devuelve las líneas de la sesión en orden estable (por ID de
// línea, fijado al crear).
func (r *CycleCountRepo) ListItems(cycleCountID string) ([]*entity.CycleCountItem, error) {
	query := `SELECT ` + itemColumns + ` FROM cycle_count_items WHERE cycle_count_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, cycleCountID)
	if err != nil {
		return nil, fmt.Errorf("list cycle count items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CycleCountItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle count item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// GetItem obtiene la línea de un producto (y lote opcional) dentro de la sesión.
func (r *CycleCountRepo) GetItem(cycleCountID, productID string, batchID *string) (*entity.CycleCountItem, error) {
	query := `
		SELECT ` + itemColumns + ` FROM cycle_count_items
		WHERE cycle_count_id = $1 AND product_id = $2 AND batch_id IS NOT DISTINCT FROM $3`
	it, err := scanItem(r.q.QueryRow(context.Background(), query, cycleCountID, productID, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cycle count item: %w", err)
	}
	return it, nil
}

// LockItemSnapshot escribe la foto (system_quantity y unit_cost) de una
// línea. Es la única escritura sobre esas columnas; ninguna otra query del
// repositorio las menciona en un SET.
func (r *CycleCountRepo) LockItemSnapshot(item *entity.CycleCountItem) error {
	query := `
		UPDATE cycle_count_items SET system_quantity = $2, unit_cost = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		item.ID, item.SystemQuantity, item.UnitCost, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("lock item snapshot: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItemCount persiste conteo y derivados de la línea en un solo
// statement: ningún lector puede ver counted_quantity nuevo con varianza
// vieja.
func (r *CycleCountRepo) UpdateItemCount(item *entity.CycleCountItem) error {
	query := `
		UPDATE cycle_count_items SET
			counted_quantity = $2, counted_by = $3, counted_at = $4, count_notes = $5,
			variance = $6, variance_percent = $7, variance_cost = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		item.ID, item.CountedQuantity, item.CountedBy, item.CountedAt, item.CountNotes,
		item.Variance, item.VariancePercent, item.VarianceCost, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearItemCounts resetea conteo y derivados de todas las líneas de la
// sesión (rechazo con recuento completo). La foto no se toca.
func (r *CycleCountRepo) ClearItemCounts(cycleCountID string) error {
	query := `
		UPDATE cycle_count_items SET
			counted_quantity = NULL, counted_by = NULL, counted_at = NULL, count_notes = '',
			variance = NULL, variance_percent = NULL, variance_cost = NULL, updated_at = now()
		WHERE cycle_count_id = $1`
	_, err := r.q.Exec(context.Background(), query, cycleCountID)
	if err != nil {
		return fmt.Errorf("clear item counts: %w", err)
	}
	return nil
}

// MarkItemAdjusted estampa la guardia de idempotencia del ajuste. El UPDATE
// condicionado a adjustment_made = false hace el check-and-set en un solo
// statement: cero filas afectadas significa que otro publicador ya ajustó la
// línea y el llamador debe saltarla.
func (r *CycleCountRepo) MarkItemAdjusted(itemID, adjustmentID string) (bool, error) {
	query := `
		UPDATE cycle_count_items
		SET adjustment_made = true, adjustment_id = $2, updated_at = now()
		WHERE id = $1 AND adjustment_made = false`
	cmd, err := r.q.Exec(context.Background(), query, itemID, adjustmentID)
	if err != nil {
		return false, fmt.Errorf("mark item adjusted: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func scanCount(row pgx.Row) (*entity.CycleCount, error) {
	var c entity.CycleCount
	var notes *string
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.WarehouseID, &c.CountNumber, &c.Type, &c.Status,
		&c.BlindCount, &notes,
		&c.ScheduledAt, &c.StartedAt, &c.CompletedAt, &c.CreatedBy, &c.ApprovedBy,
		&c.TotalItems, &c.ItemsCounted, &c.ItemsWithVariance,
		&c.TotalVarianceCost, &c.PositiveVariance, &c.NegativeVariance, &c.AccuracyPercent,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		c.Notes = *notes
	}
	return &c, nil
}

func scanItem(row pgx.Row) (*entity.CycleCountItem, error) {
	var it entity.CycleCountItem
	var countNotes *string
	err := row.Scan(
		&it.ID, &it.CycleCountID, &it.ProductID, &it.BatchID,
		&it.SystemQuantity, &it.UnitCost,
		&it.CountedQuantity, &it.CountedBy, &it.CountedAt, &countNotes,
		&it.Variance, &it.VariancePercent, &it.VarianceCost,
		&it.AdjustmentMade, &it.AdjustmentID,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if countNotes != nil {
		it.CountNotes = *countNotes
	}
	return &it, nil
}
