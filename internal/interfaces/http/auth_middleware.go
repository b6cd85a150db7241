package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// Locals keys para los claims del token en Fiber.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID, email y rol a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil || claims.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// UserLookup lectura de usuarios que necesita ActiveUser (la cumple repository.UserRepository).
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// ActiveUser vuelve a leer el usuario del token en cada petición. Usuario inexistente responde 401
// y desactivado 403. El rol efectivo es el menor entre el del token y el vigente.
// Con users nil no hace nada. Debe usarse DESPUÉS de AuthMiddleware.
func ActiveUser(users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if users == nil {
			return c.Next()
		}
		user, err := users.GetByID(c.UserContext(), GetUserID(c))
		if err != nil {
			return writeError(c, err)
		}
		if user == nil {
			return writeError(c, fmt.Errorf("%w: el usuario del token no existe", domain.ErrUnauthorized))
		}
		if !user.IsActive {
			return writeError(c, fmt.Errorf("%w: usuario inactivo", domain.ErrForbidden))
		}
		if tokenRole, err := entity.ParseRole(GetRole(c)); err == nil && entity.CompareRoles(user.Role, tokenRole) < 0 {
			c.Locals(LocalRole, string(user.Role))
		}
		return c.Next()
	}
}

// RequireRole exige que el rol del token sea min o superior en la jerarquía
// VIEWER < STAFF < ADMIN < SUPER_ADMIN. Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(min entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := GetRole(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		role, err := entity.ParseRole(raw)
		if err != nil || !role.AtLeast(min) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "se requiere rol " + string(min) + " o superior",
			})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol tal como viene en el token.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetActor arma el actor que se pasa a los casos de uso. Un rol desconocido queda vacío
// y no supera ningún chequeo de permisos.
func GetActor(c *fiber.Ctx) entity.Actor {
	role, _ := entity.ParseRole(GetRole(c))
	return entity.Actor{UserID: GetUserID(c), Role: role}
}
