package counting_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcounting "github.com/jhoicas/Conteos-api/internal/application/counting"
	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	domcounting "github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
	"github.com/jhoicas/Conteos-api/internal/domain/repository"
	"github.com/jhoicas/Conteos-api/pkg/logger"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

const (
	testCompany   = "company-1"
	testWarehouse = "warehouse-1"
	testAdmin     = "user-admin"
	testCounter   = "user-bodeguero"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. Comparten un estado central; el fakeTxRunner clona el
// estado antes de cada callback y lo restaura si falla, imitando el
// rollback de una transacción real.
// ──────────────────────────────────────────────────────────────────────────────

type fakeState struct {
	counts     map[string]*entity.CycleCount
	items      map[string][]*entity.CycleCountItem // por sesión, orden estable
	stocks     map[string]*entity.Stock
	movements  []*entity.InventoryMovement
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse

	failMovementFor map[string]bool // productID → Create de asiento falla
}

func newFakeState() *fakeState {
	return &fakeState{
		counts:          map[string]*entity.CycleCount{},
		items:           map[string][]*entity.CycleCountItem{},
		stocks:          map[string]*entity.Stock{},
		products:        map[string]*entity.Product{},
		warehouses:      map[string]*entity.Warehouse{},
		failMovementFor: map[string]bool{},
	}
}

func stockKey(productID, warehouseID string, batchID *string) string {
	k := productID + "|" + warehouseID
	if batchID != nil {
		k += "|" + *batchID
	}
	return k
}

func cloneCount(c *entity.CycleCount) *entity.CycleCount {
	cp := *c
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		cp.ScheduledAt = &t
	}
	if c.StartedAt != nil {
		t := *c.StartedAt
		cp.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	if c.ApprovedBy != nil {
		s := *c.ApprovedBy
		cp.ApprovedBy = &s
	}
	if c.AccuracyPercent != nil {
		p := *c.AccuracyPercent
		cp.AccuracyPercent = &p
	}
	return &cp
}

func cloneItem(it *entity.CycleCountItem) *entity.CycleCountItem {
	cp := *it
	cloneDec := func(p *decimal.Decimal) *decimal.Decimal {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	cloneStr := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	cloneTime := func(p *time.Time) *time.Time {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	cp.BatchID = cloneStr(it.BatchID)
	cp.CountedQuantity = cloneDec(it.CountedQuantity)
	cp.CountedBy = cloneStr(it.CountedBy)
	cp.CountedAt = cloneTime(it.CountedAt)
	cp.Variance = cloneDec(it.Variance)
	cp.VariancePercent = cloneDec(it.VariancePercent)
	cp.VarianceCost = cloneDec(it.VarianceCost)
	cp.AdjustmentID = cloneStr(it.AdjustmentID)
	return &cp
}

func (s *fakeState) clone() *fakeState {
	cp := newFakeState()
	for id, c := range s.counts {
		cp.counts[id] = cloneCount(c)
	}
	for id, its := range s.items {
		list := make([]*entity.CycleCountItem, 0, len(its))
		for _, it := range its {
			list = append(list, cloneItem(it))
		}
		cp.items[id] = list
	}
	for k, st := range s.stocks {
		stc := *st
		cp.stocks[k] = &stc
	}
	cp.movements = append(cp.movements, s.movements...)
	cp.products = s.products
	cp.warehouses = s.warehouses
	cp.failMovementFor = s.failMovementFor
	return cp
}

// ── repos fake ────────────────────────────────────────────────────────────────

type fakeCountRepo struct{ st *fakeState }

func (r *fakeCountRepo) Create(count *entity.CycleCount, items []*entity.CycleCountItem) error {
	r.st.counts[count.ID] = cloneCount(count)
	list := make([]*entity.CycleCountItem, 0, len(items))
	for _, it := range items {
		list = append(list, cloneItem(it))
	}
	r.st.items[count.ID] = list
	return nil
}

func (r *fakeCountRepo) GetByID(id string) (*entity.CycleCount, error) {
	c, ok := r.st.counts[id]
	if !ok {
		return nil, nil
	}
	return cloneCount(c), nil
}

func (r *fakeCountRepo) GetForUpdate(id string) (*entity.CycleCount, error) {
	return r.GetByID(id)
}

func (r *fakeCountRepo) UpdateSession(count *entity.CycleCount) error {
	if _, ok := r.st.counts[count.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.counts[count.ID] = cloneCount(count)
	return nil
}

func (r *fakeCountRepo) ListByCompany(companyID, status string, limit, offset int) ([]*entity.CycleCount, error) {
	var list []*entity.CycleCount
	for _, c := range r.st.counts {
		if c.CompanyID == companyID && (status == "" || c.Status == status) {
			list = append(list, cloneCount(c))
		}
	}
	return list, nil
}

func (r *fakeCountRepo) ListItems(cycleCountID string) ([]*entity.CycleCountItem, error) {
	var list []*entity.CycleCountItem
	for _, it := range r.st.items[cycleCountID] {
		list = append(list, cloneItem(it))
	}
	return list, nil
}

func (r *fakeCountRepo) GetItem(cycleCountID, productID string, batchID *string) (*entity.CycleCountItem, error) {
	for _, it := range r.st.items[cycleCountID] {
		if it.ProductID != productID {
			continue
		}
		if (it.BatchID == nil) != (batchID == nil) {
			continue
		}
		if batchID != nil && *it.BatchID != *batchID {
			continue
		}
		return cloneItem(it), nil
	}
	return nil, nil
}

func (r *fakeCountRepo) findStored(itemID string) *entity.CycleCountItem {
	for _, its := range r.st.items {
		for _, it := range its {
			if it.ID == itemID {
				return it
			}
		}
	}
	return nil
}

func (r *fakeCountRepo) LockItemSnapshot(item *entity.CycleCountItem) error {
	stored := r.findStored(item.ID)
	if stored == nil {
		return domain.ErrNotFound
	}
	stored.SystemQuantity = item.SystemQuantity
	stored.UnitCost = item.UnitCost
	stored.UpdatedAt = item.UpdatedAt
	return nil
}

func (r *fakeCountRepo) UpdateItemCount(item *entity.CycleCountItem) error {
	stored := r.findStored(item.ID)
	if stored == nil {
		return domain.ErrNotFound
	}
	cp := cloneItem(item)
	stored.CountedQuantity = cp.CountedQuantity
	stored.CountedBy = cp.CountedBy
	stored.CountedAt = cp.CountedAt
	stored.CountNotes = cp.CountNotes
	stored.Variance = cp.Variance
	stored.VariancePercent = cp.VariancePercent
	stored.VarianceCost = cp.VarianceCost
	stored.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *fakeCountRepo) ClearItemCounts(cycleCountID string) error {
	for _, it := range r.st.items[cycleCountID] {
		it.CountedQuantity = nil
		it.CountedBy = nil
		it.CountedAt = nil
		it.CountNotes = ""
		it.Variance = nil
		it.VariancePercent = nil
		it.VarianceCost = nil
	}
	return nil
}

func (r *fakeCountRepo) MarkItemAdjusted(itemID, adjustmentID string) (bool, error) {
	stored := r.findStored(itemID)
	if stored == nil {
		return false, domain.ErrNotFound
	}
	if stored.AdjustmentMade {
		return false, nil
	}
	stored.AdjustmentMade = true
	id := adjustmentID
	stored.AdjustmentID = &id
	return true, nil
}

type fakeStockRepo struct{ st *fakeState }

func (r *fakeStockRepo) Get(productID, warehouseID string, batchID *string) (*entity.Stock, error) {
	if s, ok := r.st.stocks[stockKey(productID, warehouseID, batchID)]; ok {
		cp := *s
		return &cp, nil
	}
	return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, BatchID: batchID, Quantity: decimal.Zero}, nil
}

func (r *fakeStockRepo) GetForUpdate(productID, warehouseID string, batchID *string) (*entity.Stock, error) {
	return r.Get(productID, warehouseID, batchID)
}

func (r *fakeStockRepo) Upsert(stock *entity.Stock) error {
	cp := *stock
	r.st.stocks[stockKey(stock.ProductID, stock.WarehouseID, stock.BatchID)] = &cp
	return nil
}

type fakeMovementRepo struct{ st *fakeState }

func (r *fakeMovementRepo) Create(m *entity.InventoryMovement) error {
	if r.st.failMovementFor[m.ProductID] {
		return fmt.Errorf("ledger caído para %s", m.ProductID)
	}
	cp := *m
	r.st.movements = append(r.st.movements, &cp)
	return nil
}

func (r *fakeMovementRepo) GetByID(id string) (*entity.InventoryMovement, error) {
	for _, m := range r.st.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) ListByReference(reference string) ([]*entity.InventoryMovement, error) {
	var list []*entity.InventoryMovement
	for _, m := range r.st.movements {
		if m.Reference == reference {
			cp := *m
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *fakeMovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}

type fakeProductRepo struct{ st *fakeState }

func (r *fakeProductRepo) Create(p *entity.Product) error { r.st.products[p.ID] = p; return nil }
func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}
func (r *fakeProductRepo) GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Update(p *entity.Product) error { return nil }
func (r *fakeProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) ListActive(companyID, abcClass string) ([]*entity.Product, error) {
	var list []*entity.Product
	for _, p := range r.st.products {
		if p.CompanyID == companyID && p.Active && (abcClass == "" || p.ABCClass == abcClass) {
			list = append(list, p)
		}
	}
	return list, nil
}
func (r *fakeProductRepo) Delete(id string) error { return nil }

type fakeWarehouseRepo struct{ st *fakeState }

func (r *fakeWarehouseRepo) Create(w *entity.Warehouse) error { r.st.warehouses[w.ID] = w; return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	w, ok := r.st.warehouses[id]
	if !ok {
		return nil, nil
	}
	return w, nil
}
func (r *fakeWarehouseRepo) Update(w *entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) Delete(id string) error { return nil }

// fakeTxRunner imita Commit/Rollback: clona el estado antes del callback y
// lo restaura completo si el callback devuelve error.
type fakeTxRunner struct{ st *fakeState }

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	countRepo repository.CycleCountRepository,
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	backup := r.st.clone()
	err := fn(&fakeCountRepo{r.st}, &fakeStockRepo{r.st}, &fakeMovementRepo{r.st}, &fakeProductRepo{r.st})
	if err != nil {
		*r.st = *backup
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: 3 productos con stock [10, 5, 0] y costos [2, 3, 1], el mismo
// escenario de la suite de dominio, ahora de punta a punta.
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	st *fakeState
	uc *appcounting.CycleCountUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newFakeState()
	st.warehouses[testWarehouse] = &entity.Warehouse{ID: testWarehouse, CompanyID: testCompany, Name: "Bodega Principal"}

	addProduct := func(id, sku, class, stockQty, cost string) {
		st.products[id] = &entity.Product{
			ID: id, CompanyID: testCompany, SKU: sku, Name: "Producto " + sku,
			Cost: d(cost), ABCClass: class, Active: true,
		}
		st.stocks[stockKey(id, testWarehouse, nil)] = &entity.Stock{
			ProductID: id, WarehouseID: testWarehouse, Quantity: d(stockQty),
		}
	}
	addProduct("prod-1", "SKU-1", entity.ABCClassA, "10", "2")
	addProduct("prod-2", "SKU-2", entity.ABCClassA, "5", "3")
	addProduct("prod-3", "SKU-3", entity.ABCClassB, "0", "1")

	log := logger.New(logger.Config{Env: "production", Level: "error"})
	uc := appcounting.NewCycleCountUseCase(
		&fakeTxRunner{st},
		&fakeCountRepo{st},
		&fakeProductRepo{st},
		&fakeWarehouseRepo{st},
		appcounting.DefaultCapabilities(),
		appcounting.Config{Thresholds: domcounting.DefaultThresholds(), RandomSampleSize: 2},
		log,
	)
	return &fixture{st: st, uc: uc}
}

func (f *fixture) createFull(t *testing.T) string {
	t.Helper()
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeFull,
	})
	require.NoError(t, err)
	require.Equal(t, 3, resp.TotalItems)
	return resp.ID
}

func (f *fixture) createStarted(t *testing.T) string {
	t.Helper()
	id := f.createFull(t)
	_, err := f.uc.Start(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	return id
}

// countAll registra el escenario de referencia: contado [10, 4, 2].
func (f *fixture) countAll(t *testing.T, id string) {
	t.Helper()
	for prod, qty := range map[string]string{"prod-1": "10", "prod-2": "4", "prod-3": "2"} {
		_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
			ProductID: prod,
			Quantity:  d(qty),
		})
		require.NoError(t, err)
	}
}

func (f *fixture) itemFor(t *testing.T, id, productID string) *entity.CycleCountItem {
	t.Helper()
	for _, it := range f.st.items[id] {
		if it.ProductID == productID {
			return it
		}
	}
	t.Fatalf("ítem %s no encontrado en la sesión %s", productID, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Create y selector de alcance
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_TipoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        "PARTIAL",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_RolSinCapacidadDeCrear(t *testing.T) {
	f := newFixture(t)
	for _, role := range []string{entity.RoleBodeguero, entity.RoleVendedor} {
		_, err := f.uc.Create(context.Background(), testCompany, testCounter, role, dto.CreateCountRequest{
			WarehouseID: testWarehouse,
			Type:        entity.CountTypeFull,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden, "rol %s no debe crear conteos", role)
	}
}

func TestCreate_ABCSeleccionaSoloLaClase(t *testing.T) {
	f := newFixture(t)
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeABCClassA,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalItems, "clase A tiene prod-1 y prod-2")
}

func TestCreate_RandomRespetaTamanoDeMuestra(t *testing.T) {
	f := newFixture(t)
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeRandom,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalItems, "sample size configurado en 2")
}

func TestCreate_SpotSinScopeFalla(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeSpot,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_ConProgramacionQuedaScheduled(t *testing.T) {
	f := newFixture(t)
	at := time.Now().Add(24 * time.Hour)
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeFull,
		ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusScheduled, resp.Status)
	require.NotNil(t, resp.ScheduledAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Start: snapshot-lock
// ──────────────────────────────────────────────────────────────────────────────

func TestStart_CongelaSnapshotDeLibrosYCosto(t *testing.T) {
	f := newFixture(t)
	id := f.createFull(t)

	resp, err := f.uc.Start(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusInProgress, resp.Status)
	require.NotNil(t, resp.StartedAt)

	it1 := f.itemFor(t, id, "prod-1")
	it3 := f.itemFor(t, id, "prod-3")
	assert.True(t, it1.SystemQuantity.Equal(d("10")))
	assert.True(t, it1.UnitCost.Equal(d("2")))
	assert.True(t, it3.SystemQuantity.Equal(d("0")), "producto sin fila de stock congela 0")
}

func TestStart_ElSnapshotIgnoraMovimientosPosteriores(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	// El stock vivo sigue moviéndose durante el conteo...
	f.st.stocks[stockKey("prod-1", testWarehouse, nil)].Quantity = d("7")

	// ...pero la base de comparación no cambia.
	it := f.itemFor(t, id, "prod-1")
	assert.True(t, it.SystemQuantity.Equal(d("10")), "la foto es inmutable tras el lock")
}

func TestStart_DosVecesEsTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	_, err := f.uc.Start(context.Background(), id, testCompany, entity.RoleBodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStart_SinItemsEsValidationError(t *testing.T) {
	f := newFixture(t)
	// Sin productos activos el alcance FULL queda vacío.
	for _, p := range f.st.products {
		p.Active = false
	}
	id := f.createFull0(t)
	_, err := f.uc.Start(context.Background(), id, testCompany, entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// createFull0 crea una sesión FULL que puede quedar sin ítems.
func (f *fixture) createFull0(t *testing.T) string {
	t.Helper()
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeFull,
	})
	require.NoError(t, err)
	return resp.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordCount
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordCount_CalculaVarianzaYAgregados(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	resp, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-2",
		Quantity:  d("4"),
		Notes:     "una unidad rota",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ItemsCounted)
	assert.Equal(t, 1, resp.ItemsWithVariance)

	it := f.itemFor(t, id, "prod-2")
	require.NotNil(t, it.Variance)
	assert.True(t, it.Variance.Equal(d("-1")))
	assert.True(t, it.VarianceCost.Equal(d("-3")))
	assert.Equal(t, testCounter, *it.CountedBy)
	assert.Equal(t, "una unidad rota", it.CountNotes)
}

func TestRecordCount_CorreccionMientrasEnProgreso(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	for _, qty := range []string{"4", "5"} {
		_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
			ProductID: "prod-2",
			Quantity:  d(qty),
		})
		require.NoError(t, err)
	}

	it := f.itemFor(t, id, "prod-2")
	assert.True(t, it.CountedQuantity.Equal(d("5")), "la corrección pisa el conteo anterior")
	assert.True(t, it.Variance.IsZero(), "y la varianza se recalcula")

	c := f.st.counts[id]
	assert.Equal(t, 1, c.ItemsCounted, "corregir no duplica el progreso")
	assert.Equal(t, 0, c.ItemsWithVariance)
}

func TestRecordCount_InvarianteVarianzaNulaSiiSinConteo(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	for _, it := range f.st.items[id] {
		assert.Nil(t, it.CountedQuantity)
		assert.Nil(t, it.Variance)
		assert.Nil(t, it.VariancePercent)
		assert.Nil(t, it.VarianceCost)
	}

	f.countAll(t, id)
	for _, it := range f.st.items[id] {
		assert.NotNil(t, it.CountedQuantity)
		assert.NotNil(t, it.Variance)
		assert.NotNil(t, it.VariancePercent)
		assert.NotNil(t, it.VarianceCost)
	}
}

func TestRecordCount_FueraDeAlcance(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-inexistente",
		Quantity:  d("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "el alcance quedó fijo al crear: no se agregan líneas")
}

func TestRecordCount_CantidadNegativa(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-1",
		Quantity:  d("-3"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordCount_AntesDeIniciarEsTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	id := f.createFull(t)

	_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-1",
		Quantity:  d("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// SubmitForReview
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_IncompletoEnumeraFaltantes(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	// 2 de 3 contados.
	for _, prod := range []string{"prod-1", "prod-2"} {
		_, err := f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
			ProductID: prod, Quantity: d("1"),
		})
		require.NoError(t, err)
	}

	_, err := f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	var incErr *domain.IncompleteCountError
	require.ErrorAs(t, err, &incErr)
	assert.Equal(t, 1, incErr.Remaining)
	assert.Equal(t, 3, incErr.Total)
	assert.Equal(t, entity.CountStatusInProgress, f.st.counts[id].Status, "el estado no cambia")
}

func TestSubmit_CompletoPasaARevision(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)
	f.countAll(t, id)

	resp, err := f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusPendingReview, resp.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reject
// ──────────────────────────────────────────────────────────────────────────────

func pendingReviewFixture(t *testing.T) (*fixture, string) {
	t.Helper()
	f := newFixture(t)
	id := f.createStarted(t)
	f.countAll(t, id)
	_, err := f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	return f, id
}

func TestReject_SinMotivoFalla(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.Reject(context.Background(), id, testCompany, entity.RoleAdmin, dto.RejectCountRequest{ClearCounts: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReject_ConClearCountsReseteaTodo(t *testing.T) {
	f, id := pendingReviewFixture(t)

	resp, err := f.uc.Reject(context.Background(), id, testCompany, entity.RoleAdmin, dto.RejectCountRequest{
		Reason:      "se requiere recuento",
		ClearCounts: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusInProgress, resp.Status)
	assert.Equal(t, 0, resp.ItemsCounted)

	for _, it := range f.st.items[id] {
		assert.Nil(t, it.CountedQuantity, "conteo reseteado")
		assert.Nil(t, it.Variance)
		assert.Nil(t, it.VariancePercent)
		assert.Nil(t, it.VarianceCost)
		assert.True(t, it.SystemQuantity.Equal(d("10")) || it.SystemQuantity.Equal(d("5")) || it.SystemQuantity.Equal(d("0")),
			"el snapshot NO se resetea con el rechazo")
	}
}

func TestReject_SinClearCountsConservaConteos(t *testing.T) {
	f, id := pendingReviewFixture(t)

	resp, err := f.uc.Reject(context.Background(), id, testCompany, entity.RoleAdmin, dto.RejectCountRequest{
		Reason: "revisar solo los marcados",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusInProgress, resp.Status)
	assert.Equal(t, 3, resp.ItemsCounted, "los conteos previos se conservan")
}

func TestReject_SoloAdmin(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.Reject(context.Background(), id, testCompany, entity.RoleBodeguero, dto.RejectCountRequest{Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Approve y publicación de ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_PublicaSoloLineasConVarianza(t *testing.T) {
	f, id := pendingReviewFixture(t)

	resp, err := f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.AdjustmentsCreated, "prod-2 y prod-3 tienen varianza; prod-1 no")
	assert.Equal(t, 0, resp.AdjustmentsFailed)

	c := f.st.counts[id]
	assert.Equal(t, entity.CountStatusCompleted, c.Status)
	require.NotNil(t, c.ApprovedBy)
	assert.Equal(t, testAdmin, *c.ApprovedBy)
	require.NotNil(t, c.CompletedAt)
	assert.True(t, c.TotalVarianceCost.Equal(d("-1")), "(-1*3) + (2*1)")

	it1 := f.itemFor(t, id, "prod-1")
	assert.False(t, it1.AdjustmentMade, "varianza cero no genera asiento")
	assert.Nil(t, it1.AdjustmentID)

	for _, prod := range []string{"prod-2", "prod-3"} {
		it := f.itemFor(t, id, prod)
		assert.True(t, it.AdjustmentMade)
		require.NotNil(t, it.AdjustmentID)
	}

	movs, _ := (&fakeMovementRepo{f.st}).ListByReference(id)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeADJUSTMENT, m.Type)
	}
}

func TestApprove_AjusteMueveElSaldoVivoPorElDelta(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)
	f.countAll(t, id)

	// Venta durante el conteo: prod-2 baja de 5 a 3 en el libro vivo.
	f.st.stocks[stockKey("prod-2", testWarehouse, nil)].Quantity = d("3")

	_, err := f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	_, err = f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)

	// El ajuste aplica la varianza (-1) sobre el saldo vivo (3), no pisa el
	// saldo con lo contado.
	live := f.st.stocks[stockKey("prod-2", testWarehouse, nil)]
	assert.True(t, live.Quantity.Equal(d("2")), "3 + (-1) = 2, obtuvo %s", live.Quantity)
}

func TestApprove_DobleAprobacionSoloUnaEjecutaElPublicador(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)

	_, err = f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "la segunda aprobación ve COMPLETED y se rechaza")

	movs, _ := (&fakeMovementRepo{f.st}).ListByReference(id)
	assert.Len(t, movs, 2, "sin asientos duplicados")
}

func TestApprove_SoloAdminAprueba(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.Approve(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRetryAdjustments_EsIdempotente(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)

	idsBefore := map[string]string{}
	for _, prod := range []string{"prod-2", "prod-3"} {
		idsBefore[prod] = *f.itemFor(t, id, prod).AdjustmentID
	}

	resp, err := f.uc.RetryAdjustments(context.Background(), id, testCompany, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.AdjustmentsCreated, "nada pendiente: todo se salta")
	assert.Equal(t, 0, resp.AdjustmentsFailed)

	for prod, before := range idsBefore {
		assert.Equal(t, before, *f.itemFor(t, id, prod).AdjustmentID, "adjustment_id ya estampado no cambia")
	}
	movs, _ := (&fakeMovementRepo{f.st}).ListByReference(id)
	assert.Len(t, movs, 2)
}

func TestApprove_FalloParcialQuedaCompletadoYReintentable(t *testing.T) {
	f, id := pendingReviewFixture(t)

	// El ledger rechaza el asiento de prod-3.
	f.st.failMovementFor["prod-3"] = true

	resp, err := f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NotNil(t, resp)
	assert.Equal(t, 1, resp.AdjustmentsCreated)
	assert.Equal(t, 1, resp.AdjustmentsFailed)

	var pubErr *domain.PublicationError
	require.ErrorAs(t, err, &pubErr, "el fallo parcial se reporta tipado, nunca se traga")
	assert.Equal(t, 1, pubErr.Failed)

	c := f.st.counts[id]
	assert.Equal(t, entity.CountStatusCompleted, c.Status, "la aprobación queda en pie: el conteo es válido")

	it3 := f.itemFor(t, id, "prod-3")
	assert.False(t, it3.AdjustmentMade, "el rollback de la tx deja la guardia sin estampar")

	// Reintento con el ledger recuperado: publica SOLO el pendiente.
	f.st.failMovementFor = map[string]bool{}
	adjOf2 := *f.itemFor(t, id, "prod-2").AdjustmentID

	retry, err := f.uc.RetryAdjustments(context.Background(), id, testCompany, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.AdjustmentsCreated)
	assert.Equal(t, 0, retry.AdjustmentsFailed)

	assert.Equal(t, adjOf2, *f.itemFor(t, id, "prod-2").AdjustmentID, "el asiento previo no se toca")
	assert.True(t, f.itemFor(t, id, "prod-3").AdjustmentMade)

	movs, _ := (&fakeMovementRepo{f.st}).ListByReference(id)
	assert.Len(t, movs, 2, "exactamente un asiento por línea con varianza")
}

func TestRetryAdjustments_SoloSobreCompletado(t *testing.T) {
	f, id := pendingReviewFixture(t)

	_, err := f.uc.RetryAdjustments(context.Background(), id, testCompany, entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_DesdeCualquierNoTerminal(t *testing.T) {
	f := newFixture(t)
	id := f.createFull(t)

	resp, err := f.uc.Cancel(context.Background(), id, testCompany, entity.RoleAdmin, dto.CancelCountRequest{Reason: "bodega en recepción"})
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusCancelled, resp.Status)
}

func TestCancel_CompletadoNoSeCancela(t *testing.T) {
	f, id := pendingReviewFixture(t)
	_, err := f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)

	_, err = f.uc.Cancel(context.Background(), id, testCompany, entity.RoleAdmin, dto.CancelCountRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_NoAdmiteMasMutacion(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)
	_, err := f.uc.Cancel(context.Background(), id, testCompany, entity.RoleAdmin, dto.CancelCountRequest{})
	require.NoError(t, err)

	_, err = f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-1", Quantity: d("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteo ciego y tenancy
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStatus_ConteoCiegoOcultaLibrosAlContador(t *testing.T) {
	f := newFixture(t)
	resp, err := f.uc.Create(context.Background(), testCompany, testAdmin, entity.RoleAdmin, dto.CreateCountRequest{
		WarehouseID: testWarehouse,
		Type:        entity.CountTypeFull,
		BlindCount:  true,
	})
	require.NoError(t, err)
	id := resp.ID
	_, err = f.uc.Start(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)

	asCounter, err := f.uc.GetStatus(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	for _, it := range asCounter.Items {
		assert.Nil(t, it.SystemQuantity, "el contador no ve la cantidad en libros")
		assert.Nil(t, it.Variance)
	}

	asAdmin, err := f.uc.GetStatus(context.Background(), id, testCompany, entity.RoleAdmin)
	require.NoError(t, err)
	for _, it := range asAdmin.Items {
		assert.NotNil(t, it.SystemQuantity, "el revisor sí ve los libros")
	}

	// El cálculo interno no cambia con el conteo ciego.
	_, err = f.uc.RecordCount(context.Background(), id, testCompany, testCounter, entity.RoleBodeguero, dto.RecordCountRequest{
		ProductID: "prod-2", Quantity: d("4"),
	})
	require.NoError(t, err)
	it := f.itemFor(t, id, "prod-2")
	require.NotNil(t, it.Variance, "la varianza se calcula igual al momento del conteo")
	assert.True(t, it.Variance.Equal(d("-1")))
}

func TestGetStatus_OtraEmpresaNoVeLaSesion(t *testing.T) {
	f := newFixture(t)
	id := f.createFull(t)

	_, err := f.uc.GetStatus(context.Background(), id, "otra-empresa", entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	f.createFull(t)
	f.createStarted(t)

	inProgress, err := f.uc.List(context.Background(), testCompany, entity.CountStatusInProgress, 20, 0)
	require.NoError(t, err)
	assert.Len(t, inProgress.Items, 1)

	all, err := f.uc.List(context.Background(), testCompany, "", 20, 0)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = f.uc.List(context.Background(), testCompany, "NO_EXISTE", 20, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Guarda de inmutabilidad: ninguna operación posterior al lock toca la foto.
func TestInvariante_SnapshotInmutableDuranteTodoElCiclo(t *testing.T) {
	f := newFixture(t)
	id := f.createStarted(t)

	snapshot := map[string]decimal.Decimal{}
	for _, it := range f.st.items[id] {
		snapshot[it.ProductID] = it.SystemQuantity
	}

	f.countAll(t, id)
	_, err := f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	_, err = f.uc.Reject(context.Background(), id, testCompany, entity.RoleAdmin, dto.RejectCountRequest{Reason: "otra vuelta", ClearCounts: false})
	require.NoError(t, err)
	f.countAll(t, id)
	_, err = f.uc.SubmitForReview(context.Background(), id, testCompany, entity.RoleBodeguero)
	require.NoError(t, err)
	_, err = f.uc.Approve(context.Background(), id, testCompany, testAdmin, entity.RoleAdmin)
	require.NoError(t, err)

	for _, it := range f.st.items[id] {
		assert.True(t, it.SystemQuantity.Equal(snapshot[it.ProductID]),
			"system_quantity de %s cambió después del lock", it.ProductID)
	}
}
