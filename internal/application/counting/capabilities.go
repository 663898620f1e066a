package counting

import (
	"github.com/jhoicas/Conteos-api/internal/domain/counting"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// ActionCreate es la única acción de capacidad sin transición asociada:
// crear la sesión no muta una sesión existente. El resto de acciones reusa
// las constantes de la tabla de transiciones del dominio.
const ActionCreate = "create"

// RoleCapabilities implementación por rol del oráculo de permisos: una tabla
// acción → roles permitidos. Es la política por defecto; los tests y otros
// despliegues pueden inyectar la suya.
type RoleCapabilities struct {
	grants map[string][]string
}

// DefaultCapabilities política por defecto:
//   - admin: todo el ciclo de vida.
//   - bodeguero: iniciar, contar y enviar a revisión (no aprueba su propio
//     trabajo).
//   - vendedor: solo lectura (ninguna acción de mutación).
func DefaultCapabilities() *RoleCapabilities {
	adminOnly := []string{entity.RoleAdmin}
	counterOrAdmin := []string{entity.RoleAdmin, entity.RoleBodeguero}
	return &RoleCapabilities{grants: map[string][]string{
		ActionCreate:           adminOnly,
		counting.ActionStart:   counterOrAdmin,
		counting.ActionCount:   counterOrAdmin,
		counting.ActionSubmit:  counterOrAdmin,
		counting.ActionApprove: adminOnly,
		counting.ActionReject:  adminOnly,
		counting.ActionCancel:  adminOnly,
	}}
}

// Allows informa si el rol puede ejecutar la acción.
func (c *RoleCapabilities) Allows(role, action string) bool {
	for _, r := range c.grants[action] {
		if r == role {
			return true
		}
	}
	return false
}
