package entity

import (
	"fmt"
	"strings"
	"time"
)

// Role nivel de permisos. El orden es total: VIEWER < STAFF < ADMIN < SUPER_ADMIN
// y un rol superior satisface cualquier requisito inferior.
type Role string

// Roles válidos para User, de menor a mayor.
const (
	RoleViewer     Role = "VIEWER"
	RoleStaff      Role = "STAFF"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleOrder = []Role{RoleViewer, RoleStaff, RoleAdmin, RoleSuperAdmin}

var roleDescriptions = map[Role]string{
	RoleViewer:     "Consulta de catálogos, existencias y reportes",
	RoleStaff:      "Registra entradas, salidas y traslados",
	RoleAdmin:      "Ajustes de inventario, catálogos y usuarios",
	RoleSuperAdmin: "Acceso total, incluida la configuración",
}

// Roles devuelve los roles ordenados de menor a mayor privilegio.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// ParseRole acepta el nombre en mayúsculas o minúsculas ("staff", "super_admin").
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("rol desconocido: %q", s)
	}
	return r, nil
}

// Level posición del rol en la jerarquía; -1 si no es válido.
func (r Role) Level() int {
	for i, candidate := range roleOrder {
		if candidate == r {
			return i
		}
	}
	return -1
}

// Valid indica si el rol pertenece a la jerarquía.
func (r Role) Valid() bool { return r.Level() >= 0 }

// AtLeast indica si r satisface el requisito min. Un rol inválido nunca satisface nada.
func (r Role) AtLeast(min Role) bool {
	if !r.Valid() || !min.Valid() {
		return false
	}
	return r.Level() >= min.Level()
}

// Description texto para mostrar en el listado de roles.
func (r Role) Description() string { return roleDescriptions[r] }

// CompareRoles devuelve -1, 0 o 1 según a sea menor, igual o mayor que b.
func CompareRoles(a, b Role) int {
	la, lb := a.Level(), b.Level()
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor credencial del request (usuario autenticado y su rol).
// Se pasa explícitamente a cada caso de uso; no hay sesión global.
type Actor struct {
	UserID string
	Role   Role
}

// Can indica si el actor cumple el rol mínimo requerido.
func (a Actor) Can(min Role) bool {
	return a.UserID != "" && a.Role.AtLeast(min)
}
