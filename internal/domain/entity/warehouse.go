package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario
// (multi-bodega). Cada sesión de conteo pertenece a exactamente una bodega.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
