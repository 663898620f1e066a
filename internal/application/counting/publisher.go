package counting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

// Approve aprueba la sesión y publica los ajustes.
//
// La transición a COMPLETED (con aprobador, completed_at y agregados
// congelados) se confirma PRIMERO, en su propia transacción con la fila
// bloqueada: dos approve simultáneos serializan y solo uno ejecuta el
// publicador. La publicación corre después, ítem por ítem; un fallo parcial
// no revierte la aprobación (el conteo es válido), sino que se reporta en
// la respuesta y como PublicationError, y se reintenta con
// RetryAdjustments.
func (uc *CycleCountUseCase) Approve(ctx context.Context, id, companyID, approverID, role string) (*dto.ApproveCountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionApprove) {
		return nil, domain.ErrForbidden
	}

	var count *entity.CycleCount
	var items []*entity.CycleCountItem
	err := uc.txRunner.Run(ctx, func(
		countRepo repository.CycleCountRepository,
		_ repository.StockRepository,
		_ repository.InventoryMovementRepository,
		_ repository.ProductRepository,
	) error {
		c, err := countRepo.GetForUpdate(id)
		if err != nil {
			return err
		}
		if c == nil || c.CompanyID != companyID {
			return domain.ErrNotFound
		}
		next, err := counting.NextStatus(c.Status, counting.ActionApprove)
		if err != nil {
			return err
		}
		its, err := countRepo.ListItems(id)
		if err != nil {
			return err
		}

		now := time.Now()
		c.Status = next
		c.ApprovedBy = &approverID
		c.CompletedAt = &now
		c.UpdatedAt = now
		counting.ComputeAggregates(its).ApplyTo(c)
		if err := countRepo.UpdateSession(c); err != nil {
			return err
		}
		count, items = c, its
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, failed, pubErrs := uc.publishAdjustments(ctx, count, items, approverID)

	resp := &dto.ApproveCountResponse{
		CycleCountID:       id,
		AdjustmentsCreated: created,
		AdjustmentsFailed:  failed,
	}
	for _, e := range pubErrs {
		resp.Errors = append(resp.Errors, e.Error())
	}

	uc.log.Info().
		Str("cycle_count_id", id).
		Int("adjustments_created", created).
		Int("adjustments_failed", failed).
		Msg("conteo aprobado")

	if failed > 0 {
		// La sesión queda COMPLETED: el error tipado viaja junto con la
		// respuesta para que el operador vea el parcial y reintente.
		return resp, &domain.PublicationError{Created: created, Failed: failed, Errors: pubErrs}
	}
	return resp, nil
}

// RetryAdjustments re-invoca el publicador sobre una sesión COMPLETED.
// Es seguro llamarlo las veces que haga falta: los ítems ya ajustados se
// saltan por la guardia adjustment_made y nunca generan un segundo asiento.
func (uc *CycleCountUseCase) RetryAdjustments(ctx context.Context, id, companyID, role string) (*dto.ApproveCountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionApprove) {
		return nil, domain.ErrForbidden
	}
	count, err := uc.countRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if count == nil || count.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if count.Status != entity.CountStatusCompleted {
		return nil, &domain.InvalidTransitionError{
			Status: count.Status,
			Action: counting.ActionApprove,
			Reason: "solo una sesión aprobada publica ajustes",
		}
	}
	items, err := uc.countRepo.ListItems(id)
	if err != nil {
		return nil, err
	}

	actor := count.CreatedBy
	if count.ApprovedBy != nil {
		actor = *count.ApprovedBy
	}
	created, failed, pubErrs := uc.publishAdjustments(ctx, count, items, actor)

	resp := &dto.ApproveCountResponse{
		CycleCountID:       id,
		AdjustmentsCreated: created,
		AdjustmentsFailed:  failed,
	}
	for _, e := range pubErrs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	if failed > 0 {
		return resp, &domain.PublicationError{Created: created, Failed: failed, Errors: pubErrs}
	}
	return resp, nil
}

// publishAdjustments convierte cada línea con varianza y sin ajuste previo
// en exactamente un asiento ADJUSTMENT. Cada ítem corre en su propia
// transacción:
//
//  1. MarkItemAdjusted estampa la guardia con UPDATE ... WHERE
//     adjustment_made = false; cero filas afectadas = otro intento ya lo
//     ajustó y el ítem se salta (el asiento de esta tx se revierte junto
//     con ella).
//  2. El saldo vivo se mueve por la varianza (contado - foto) bajo
//     FOR UPDATE: el libro siguió moviéndose durante el conteo y el ajuste
//     aplica el delta, no pisa el saldo con el valor contado.
//
// Un fallo en un ítem no arrastra a los demás: se acumula y se reporta.
func (uc *CycleCountUseCase) publishAdjustments(
	ctx context.Context,
	count *entity.CycleCount,
	items []*entity.CycleCountItem,
	actorID string,
) (created, failed int, errs []error) {
	for _, it := range items {
		if !it.HasVariance() || it.AdjustmentMade {
			continue
		}

		item := it
		published := false
		err := uc.txRunner.Run(ctx, func(
			countRepo repository.CycleCountRepository,
			stockRepo repository.StockRepository,
			movRepo repository.InventoryMovementRepository,
			_ repository.ProductRepository,
		) error {
			movID := uuid.New().String()
			marked, err := countRepo.MarkItemAdjusted(item.ID, movID)
			if err != nil {
				return err
			}
			if !marked {
				// Carrera con otro publicador: el asiento ya existe.
				return nil
			}

			stock, err := stockRepo.GetForUpdate(item.ProductID, count.WarehouseID, item.BatchID)
			if err != nil {
				return err
			}
			now := time.Now()
			stock.Quantity = stock.Quantity.Add(*item.Variance)
			stock.UpdatedAt = now
			if err := stockRepo.Upsert(stock); err != nil {
				return err
			}

			mov := &entity.InventoryMovement{
				ID:          movID,
				ProductID:   item.ProductID,
				WarehouseID: count.WarehouseID,
				BatchID:     item.BatchID,
				Type:        entity.MovementTypeADJUSTMENT,
				Quantity:    *item.Variance,
				UnitCost:    item.UnitCost,
				TotalCost:   item.Variance.Mul(item.UnitCost),
				Reference:   count.ID,
				Notes:       "ajuste por conteo " + count.CountNumber,
				Date:        now,
				CreatedAt:   now,
				CreatedBy:   actorID,
			}
			if err := movRepo.Create(mov); err != nil {
				return err
			}

			item.AdjustmentMade = true
			item.AdjustmentID = &movID
			published = true
			return nil
		})
		if err != nil {
			failed++
			errs = append(errs, err)
			uc.log.Error().Err(err).
				Str("cycle_count_id", count.ID).
				Str("item_id", item.ID).
				Str("product_id", item.ProductID).
				Msg("fallo al publicar ajuste, queda pendiente de reintento")
			continue
		}
		if published {
			created++
		}
	}
	return created, failed, errs
}
