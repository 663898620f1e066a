package counting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
	"github.com/jhoicas/Conteos-api/pkg/logger"
)

// Config parámetros del motor de conteos (desde pkg/config).
type Config struct {
	Thresholds       counting.Thresholds
	RandomSampleSize int // tamaño de muestra para conteos RANDOM
}

// CycleCountUseCase orquesta el ciclo de vida completo de una sesión de
// conteo: creación con selección de alcance, snapshot-lock al iniciar,
// registro de conteos con recálculo de varianza, revisión y publicación de
// ajustes exactamente-una-vez.
//
// Toda transición de estado corre dentro de una transacción con la fila de
// la sesión bloqueada (GetForUpdate): el check-and-set sobre status es
// atómico y dos llamadas simultáneas serializan.
type CycleCountUseCase struct {
	txRunner      TxRunner
	countRepo     repository.CycleCountRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	caps          Capabilities
	cfg           Config
	log           *logger.Logger
}

// NewCycleCountUseCase construye el caso de uso.
func NewCycleCountUseCase(
	txRunner TxRunner,
	countRepo repository.CycleCountRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	caps Capabilities,
	cfg Config,
	log *logger.Logger,
) *CycleCountUseCase {
	if cfg.RandomSampleSize <= 0 {
		cfg.RandomSampleSize = 20
	}
	return &CycleCountUseCase{
		txRunner:      txRunner,
		countRepo:     countRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		caps:          caps,
		cfg:           cfg,
		log:           log,
	}
}

// Create crea la sesión en DRAFT (o SCHEDULED si trae fecha programada) con
// sus líneas resueltas por el selector de alcance. Las cantidades de sistema
// aún no tienen significado: se congelan recién en Start.
func (uc *CycleCountUseCase) Create(ctx context.Context, companyID, userID, role string, in dto.CreateCountRequest) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, ActionCreate) {
		return nil, domain.ErrForbidden
	}
	if !counting.ValidCountType(in.Type) {
		return nil, fmt.Errorf("tipo de conteo %q desconocido: %w", in.Type, domain.ErrInvalidInput)
	}
	wh, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	refs, err := uc.selectScope(companyID, in.Type, in.Scope)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := entity.CountStatusDraft
	if in.ScheduledAt != nil {
		status = entity.CountStatusScheduled
	}
	count := &entity.CycleCount{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		WarehouseID: in.WarehouseID,
		CountNumber: newCountNumber(now),
		Type:        in.Type,
		Status:      status,
		BlindCount:  in.BlindCount,
		Notes:       in.Notes,
		ScheduledAt: in.ScheduledAt,
		CreatedBy:   userID,
		TotalItems:  len(refs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	items := make([]*entity.CycleCountItem, 0, len(refs))
	for _, ref := range refs {
		items = append(items, &entity.CycleCountItem{
			ID:           uuid.New().String(),
			CycleCountID: count.ID,
			ProductID:    ref.ProductID,
			BatchID:      ref.BatchID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := uc.countRepo.Create(count, items); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("cycle_count_id", count.ID).
		Str("count_number", count.CountNumber).
		Str("type", count.Type).
		Int("items", len(items)).
		Msg("sesión de conteo creada")

	return uc.toCountResponse(count, items, role), nil
}

// Start congela el snapshot: para cada línea lee el saldo vivo y el costo de
// valoración dentro de UNA transacción (lectura consistente) y los escribe en
// system_quantity/unit_cost. Después de esto los movimientos de stock no
// alteran la base de comparación.
func (uc *CycleCountUseCase) Start(ctx context.Context, id, companyID, role string) (*dto.CountResponse, error) {
	if !uc.caps.Allows(role, counting.ActionStart) {
		return nil, domain.ErrForbidden
	}

	var result *dto.CountResponse
	err := uc.txRunner.Run(ctx, func(
		countRepo repository.CycleCountRepository,
		stockRepo repository.StockRepository,
		_ repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		count, err := countRepo.GetForUpdate(id)
		if err != nil {
			return err
		}
		if count == nil || count.CompanyID != companyID {
			return domain.ErrNotFound
		}
		next, err := counting.NextStatus(count.Status, counting.ActionStart)
		if err != nil {
			return err
		}
		items, err := countRepo.ListItems(id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("la sesión no tiene ítems en alcance: %w", domain.ErrInvalidInput)
		}

		now := time.Now()
		for _, it := range items {
			stock, err := stockRepo.Get(it.ProductID, count.WarehouseID, it.BatchID)
			if err != nil {
				return err
			}
			product, err := productRepo.GetByID(it.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			it.SystemQuantity = stock.Quantity
			it.UnitCost = product.Cost
			it.UpdatedAt = now
			if err := countRepo.LockItemSnapshot(it); err != nil {
				return err
			}
		}

		count.Status = next
		count.StartedAt = &now
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

	uc.log.Info().Str("cycle_count_id", id).Msg("snapshot congelado, conteo en progreso")
	return result, nil
}

// GetStatus devuelve la sesión con progreso, líneas y resumen de varianza.
func (uc *CycleCountUseCase) GetStatus(ctx context.Context, id, companyID, role string) (*dto.CountResponse, error) {
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
	return uc.toCountResponse(count, items, role), nil
}

// List lista sesiones por empresa, opcionalmente filtradas por estado.
func (uc *CycleCountUseCase) List(ctx context.Context, companyID, status string, limit, offset int) (*dto.CountListResponse, error) {
	if status != "" && !counting.ValidStatus(status) {
		return nil, fmt.Errorf("estado %q desconocido: %w", status, domain.ErrInvalidInput)
	}
	list, err := uc.countRepo.ListByCompany(companyID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CountResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *uc.toCountResponse(c, nil, entity.RoleAdmin))
	}
	return &dto.CountListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// newCountNumber produce el identificador legible de la sesión,
// ej. CC-20260105-A3F2B1.
func newCountNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("CC-%s-%s", now.Format("20060102"), suffix)
}

// blindHidesBook decide si la respuesta debe ocultar cantidad en libros y
// varianza: conteo ciego, rol sin revisión y sesión aún sin completar.
// Asunto de presentación; los campos internos siempre se calculan.
func blindHidesBook(count *entity.CycleCount, role string) bool {
	return count.BlindCount && role != entity.RoleAdmin && count.Status != entity.CountStatusCompleted
}

func (uc *CycleCountUseCase) toCountResponse(count *entity.CycleCount, items []*entity.CycleCountItem, role string) *dto.CountResponse {
	resp := &dto.CountResponse{
		ID:                count.ID,
		CountNumber:       count.CountNumber,
		WarehouseID:       count.WarehouseID,
		Type:              count.Type,
		Status:            count.Status,
		BlindCount:        count.BlindCount,
		Notes:             count.Notes,
		ScheduledAt:       count.ScheduledAt,
		StartedAt:         count.StartedAt,
		CompletedAt:       count.CompletedAt,
		CreatedBy:         count.CreatedBy,
		ApprovedBy:        count.ApprovedBy,
		TotalItems:        count.TotalItems,
		ItemsCounted:      count.ItemsCounted,
		ItemsWithVariance: count.ItemsWithVariance,
		TotalVarianceCost: count.TotalVarianceCost,
		PositiveVariance:  count.PositiveVariance,
		NegativeVariance:  count.NegativeVariance,
		AccuracyPercent:   count.AccuracyPercent,
		CreatedAt:         count.CreatedAt,
		UpdatedAt:         count.UpdatedAt,
	}
	if items == nil {
		return resp
	}
	hideBook := blindHidesBook(count, role)
	resp.Items = make([]dto.CountItemResponse, 0, len(items))
	for _, it := range items {
		resp.Items = append(resp.Items, uc.toItemResponse(it, hideBook))
	}
	return resp
}

func (uc *CycleCountUseCase) toItemResponse(it *entity.CycleCountItem, hideBook bool) dto.CountItemResponse {
	r := dto.CountItemResponse{
		ID:              it.ID,
		ProductID:       it.ProductID,
		BatchID:         it.BatchID,
		CountedQuantity: it.CountedQuantity,
		CountedBy:       it.CountedBy,
		CountedAt:       it.CountedAt,
		AdjustmentMade:  it.AdjustmentMade,
		AdjustmentID:    it.AdjustmentID,
		Notes:           it.CountNotes,
	}
	if !hideBook {
		sysQty := it.SystemQuantity
		unitCost := it.UnitCost
		r.SystemQuantity = &sysQty
		r.UnitCost = &unitCost
		r.Variance = it.Variance
		r.VariancePercent = it.VariancePercent
		r.VarianceCost = it.VarianceCost
		r.ExceedsThreshold = uc.cfg.Thresholds.Exceeds(it)
	}
	return r
}
