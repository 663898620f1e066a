package counting

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
)

// SubmitForReview pasa la sesión a PENDING_REVIEW. Exige conteo completo:
// si quedan líneas sin contar falla con IncompleteCountError enumerando
// cuántas faltan.
func (uc *CycleCountUseCase) SubmitForReview(ctx context.Context, id, companyID, role string) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionSubmit) {
		return nil, domain.ErrForbidden
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
		next, err := counting.NextStatus(count.Status, counting.ActionSubmit)
		if err != nil {
			return err
		}
		items, err := countRepo.ListItems(id)
		if err != nil {
			return err
		}
		agg := counting.ComputeAggregates(items)
		if agg.ItemsCounted < agg.TotalItems {
			return &domain.IncompleteCountError{
				Remaining: agg.TotalItems - agg.ItemsCounted,
				Total:     agg.TotalItems,
			}
		}

		now := time.Now()
		count.Status = next
		count.UpdatedAt = now
		agg.ApplyTo(count)
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

// Reject devuelve la sesión de PENDING_REVIEW a IN_PROGRESS. El motivo es
// obligatorio. clearCounts = true resetea el conteo y los derivados de TODAS
// las líneas (recuento completo); false los conserva para re-digitar solo lo
// observado. La elección es del revisor, nunca se infiere.
func (uc *CycleCountUseCase) Reject(ctx context.Context, id, companyID, role string, in dto.RejectCountRequest) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionReject) {
		return nil, domain.ErrForbidden
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("el rechazo requiere un motivo: %w", domain.ErrInvalidInput)
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
		next, err := counting.NextStatus(count.Status, counting.ActionReject)
		if err != nil {
			return err
		}
		if in.ClearCounts {
			if err := countRepo.ClearItemCounts(id); err != nil {
				return err
			}
		}
		items, err := countRepo.ListItems(id)
		if err != nil {
			return err
		}

		now := time.Now()
		count.Status = next
		count.Notes = appendNote(count.Notes, "rechazado: "+in.Reason)
		count.UpdatedAt = now
		counting.ComputeAggregates(items).ApplyTo(count)
		if err := countRepo.UpdateSession(count); err != nil {
			return err
		}
		result = uc.toCountResponse(count, items, role)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("cycle_count_id", id).
		Bool("clear_counts", in.ClearCounts).
		Msg("conteo rechazado, vuelve a progreso")
	return result, nil
}

// Cancel aborta la sesión desde cualquier estado no terminal. Tras cancelar
// no se admite mutación alguna.
func (uc *CycleCountUseCase) Cancel(ctx context.Context, id, companyID, role string, in dto.CancelCountRequest) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionCancel) {
		return nil, domain.ErrForbidden
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
		next, err := counting.NextStatus(count.Status, counting.ActionCancel)
		if err != nil {
			return err
		}
		count.Status = next
		if in.Reason != "" {
			count.Notes = appendNote(count.Notes, "cancelado: "+in.Reason)
		}
		count.UpdatedAt = time.Now()
		if err := countRepo.UpdateSession(count); err != nil {
			return err
		}
		result = uc.toCountResponse(count, nil, role)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func appendNote(notes, extra string) string {
	if notes == "" {
		return extra
	}
	return notes + "\n" + extra
}
