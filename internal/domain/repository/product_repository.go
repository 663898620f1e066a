package repository

import "github.com/jhoicas/Conteos-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
	// ListActive devuelve los productos activos de la empresa; abcClass
	// vacío = todos, "A"/"B"/"C" filtra por clase de rotación. Alimenta el
	// selector de ítems de los conteos.
	ListActive(companyID, abcClass string) ([]*entity.Product, error)
	Delete(id string) error
}
