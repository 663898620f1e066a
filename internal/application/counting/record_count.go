package counting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

// RecordCount registra (o corrige) el conteo físico de una línea mientras la
// sesión está IN_PROGRESS. En la misma transacción recalcula la varianza de
// la línea y los agregados de la sesión: ningún lector ve un conteo nuevo
// con varianza vieja.
//
// Contadores distintos sobre líneas distintas no se estorban; dos escritores
// sobre la MISMA línea serializan en la fila de la sesión y gana el último
// commit, con sus derivados consistentes.
func (uc *CycleCountUseCase) RecordCount(ctx context.Context, id, companyID, counterID, role string, in dto.RecordCountRequest) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionCount) {
		return nil, domain.ErrForbidden
	}
	if in.ProductID == "" {
		return nil, fmt.Errorf("product_id es obligatorio: %w", domain.ErrInvalidInput)
	}
	if in.Quantity.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("la cantidad contada no puede ser negativa: %w", domain.ErrInvalidInput)
	}

	var result *dto.CountResponse
	err := uc.txRunner.Run(ctx, func(
		countRepo repository.CycleCountRepository,
		_ repository.StockRepository,
		_ repository.InventoryMovementRepository,
		_ repository.ProductRepository,
	) error {
		count, err := countRepo.GetForUpdate(id)
		if err != nil {
			return err
		}
		if count == nil || count.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if err := counting.CanTransition(count.Status, counting.ActionCount); err != nil {
			return err
		}
		item, err := countRepo.GetItem(id, in.ProductID, in.BatchID)
		if err != nil {
			return err
		}
		if item == nil {
			// El alcance quedó fijo al crear la sesión: no se agregan líneas.
			return fmt.Errorf("el producto %s no está en el alcance del conteo: %w", in.ProductID, domain.ErrNotFound)
		}

		now := time.Now()
		qty := in.Quantity
		r := counting.ComputeVariance(qty, item.SystemQuantity, item.UnitCost)
		item.CountedQuantity = &qty
		item.CountedBy = &counterID
		item.CountedAt = &now
		item.CountNotes = in.Notes
		item.Variance = &r.Variance
		item.VariancePercent = &r.VariancePercent
		item.VarianceCost = &r.VarianceCost
		item.UpdatedAt = now
		if err := countRepo.UpdateItemCount(item); err != nil {
			return err
		}

		items, err := countRepo.ListItems(id)
		if err != nil {
			return err
		}
		counting.ComputeAggregates(items).ApplyTo(count)
		count.UpdatedAt = now
		if err := countRepo.UpdateSession(count); err != nil {
			return err
		}
		result = uc.toCountResponse(count, items, role)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
