package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// UserUseCase administración de usuarios. Todas las operaciones exigen ADMIN o superior
// y un actor nunca puede otorgar un rol por encima del propio.
type UserUseCase struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, now: time.Now}
}

// List lista usuarios paginados.
func (uc *UserUseCase) List(ctx context.Context, actor entity.Actor, page dto.PageRequest) (*dto.UserListResponse, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	page.DefaultPage()
	users, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{
		Items: make([]dto.UserResponse, 0, len(users)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, u := range users {
		out.Items = append(out.Items, dto.ToUserResponse(u))
	}
	return out, nil
}

// Create crea un usuario activo. El password se hashea con bcrypt.
func (uc *UserUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	role, err := entity.ParseRole(in.Role)
	if err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}
	if err := canGrant(actor, role); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	out := dto.ToUserResponse(user)
	return &out, nil
}

// Update modifica email, password, rol o estado. No se puede editar a un usuario con rol superior al propio.
func (uc *UserUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			other, err := uc.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, domain.ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if in.Role != nil {
		role, err := entity.ParseRole(*in.Role)
		if err != nil {
			return nil, domain.Invalid("%s", err.Error())
		}
		if err := canGrant(actor, role); err != nil {
			return nil, err
		}
		user.Role = role
	}
	if in.IsActive != nil {
		if !*in.IsActive && user.ID == actor.UserID {
			return nil, domain.Invalid("no puede desactivarse a sí mismo")
		}
		user.IsActive = *in.IsActive
	}
	user.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	out := dto.ToUserResponse(user)
	return &out, nil
}

// Disable marca al usuario como inactivo (no se borra: sus asientos lo referencian).
func (uc *UserUseCase) Disable(ctx context.Context, actor entity.Actor, id string) error {
	inactive := false
	_, err := uc.Update(ctx, actor, id, dto.UpdateUserRequest{IsActive: &inactive})
	return err
}

// Roles lista los roles de menor a mayor privilegio.
func (uc *UserUseCase) Roles(actor entity.Actor) ([]dto.RoleResponse, error) {
	if err := requireRole(actor, entity.RoleViewer); err != nil {
		return nil, err
	}
	roles := entity.Roles()
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.RoleResponse{Name: string(r), Level: r.Level(), Description: r.Description()})
	}
	return out, nil
}

func (uc *UserUseCase) load(ctx context.Context, actor entity.Actor, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if entity.CompareRoles(user.Role, actor.Role) > 0 {
		return nil, fmt.Errorf("%w: el usuario tiene un rol superior", domain.ErrForbidden)
	}
	return user, nil
}

func canGrant(actor entity.Actor, role entity.Role) error {
	if entity.CompareRoles(role, actor.Role) > 0 {
		return fmt.Errorf("%w: no puede otorgar el rol %s", domain.ErrForbidden, role)
	}
	return nil
}

func requireRole(actor entity.Actor, min entity.Role) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Can(min) {
		return fmt.Errorf("%w: se requiere rol %s o superior", domain.ErrForbidden, min)
	}
	return nil
}
