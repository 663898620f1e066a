package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest datos para crear un producto.
type CreateProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ABCClass    string `json:"abc_class,omitempty"` // A, B o C
	UnitMeasure string `json:"unit_measure,omitempty"`
}

// UpdateProductRequest campos modificables de un producto. Cost no se toca
// por aquí: lo mueven los movimientos de inventario.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ABCClass    *string `json:"abc_class,omitempty"`
	UnitMeasure *string `json:"unit_measure,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ProductResponse representación de salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	ABCClass    string          `json:"abc_class,omitempty"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
