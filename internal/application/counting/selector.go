package counting

import (
	"fmt"
	"math/rand"

	"github.com/jhoicas/Conteos-api/internal/application/dto"
	"github.com/jhoicas/Conteos-api/internal/domain"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// itemRef referencia producto(+lote) resuelta por el selector de alcance.
type itemRef struct {
	ProductID string
	BatchID   *string
}

// selectScope resuelve qué ítems entran en el conteo según el tipo:
//
//	FULL        → todos los productos activos de la empresa
//	ABC_CLASS_* → productos activos de esa clase de rotación
//	RANDOM      → muestra aleatoria de los activos (tamaño por configuración)
//	SPOT        → el subconjunto elegido explícitamente en el request
func (uc *CycleCountUseCase) selectScope(companyID, countType string, scope []dto.SpotItemRequest) ([]itemRef, error) {
	switch countType {
	case entity.CountTypeFull:
		return uc.refsFromActive(companyID, "")
	case entity.CountTypeABCClassA:
		return uc.refsFromActive(companyID, entity.ABCClassA)
	case entity.CountTypeABCClassB:
		return uc.refsFromActive(companyID, entity.ABCClassB)
	case entity.CountTypeABCClassC:
		return uc.refsFromActive(companyID, entity.ABCClassC)
	case entity.CountTypeRandom:
		refs, err := uc.refsFromActive(companyID, "")
		if err != nil {
			return nil, err
		}
		return sampleRefs(refs, uc.cfg.RandomSampleSize), nil
	case entity.CountTypeSpot:
		return uc.refsFromSpot(companyID, scope)
	}
	return nil, fmt.Errorf("tipo de conteo %q desconocido: %w", countType, domain.ErrInvalidInput)
}

func (uc *CycleCountUseCase) refsFromActive(companyID, abcClass string) ([]itemRef, error) {
	products, err := uc.productRepo.ListActive(companyID, abcClass)
	if err != nil {
		return nil, err
	}
	refs := make([]itemRef, 0, len(products))
	for _, p := range products {
		refs = append(refs, itemRef{ProductID: p.ID})
	}
	return refs, nil
}

// refsFromSpot valida cada línea elegida: producto existente, de la empresa
// y sin duplicados en el alcance.
func (uc *CycleCountUseCase) refsFromSpot(companyID string, scope []dto.SpotItemRequest) ([]itemRef, error) {
	if len(scope) == 0 {
		return nil, fmt.Errorf("conteo SPOT requiere al menos un ítem en scope: %w", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(scope))
	refs := make([]itemRef, 0, len(scope))
	for _, s := range scope {
		key := s.ProductID
		if s.BatchID != nil {
			key += "|" + *s.BatchID
		}
		if seen[key] {
			return nil, fmt.Errorf("ítem %s duplicado en scope: %w", s.ProductID, domain.ErrDuplicate)
		}
		seen[key] = true

		product, err := uc.productRepo.GetByID(s.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.CompanyID != companyID {
			return nil, domain.ErrNotFound
		}
		refs = append(refs, itemRef{ProductID: s.ProductID, BatchID: s.BatchID})
	}
	return refs, nil
}

// sampleRefs toma una muestra sin reemplazo de tamaño n (o todo si hay menos).
func sampleRefs(refs []itemRef, n int) []itemRef {
	if len(refs) <= n {
		return refs
	}
	rand.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	return refs[:n]
}
