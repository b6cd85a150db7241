package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

var (
	admin = entity.Actor{UserID: "admin-1", Role: entity.RoleAdmin}
	staff = entity.Actor{UserID: "staff-1", Role: entity.RoleStaff}
)

func TestUserUseCase_CreateRespectsHierarchy(t *testing.T) {
	uc := usecase.NewUserUseCase(memory.NewStore().Users())
	ctx := context.Background()

	u, err := uc.Create(ctx, admin, dto.CreateUserRequest{Email: "Ana@Example.com", Password: "secreto123", Role: "staff"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "STAFF", u.Role)
	assert.True(t, u.IsActive)

	_, err = uc.Create(ctx, admin, dto.CreateUserRequest{Email: "root@example.com", Password: "secreto123", Role: "SUPER_ADMIN"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(ctx, admin, dto.CreateUserRequest{Email: "ana@example.com", Password: "secreto123", Role: "VIEWER"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.Create(ctx, staff, dto.CreateUserRequest{Email: "x@example.com", Password: "secreto123", Role: "VIEWER"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(ctx, admin, dto.CreateUserRequest{Email: "x@example.com", Password: "secreto123", Role: "OWNER"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserUseCase_UpdateAndDisable(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users())
	ctx := context.Background()

	u, err := uc.Create(ctx, admin, dto.CreateUserRequest{Email: "luis@example.com", Password: "secreto123", Role: "VIEWER"})
	require.NoError(t, err)

	role := "admin"
	updated, err := uc.Update(ctx, admin, u.ID, dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", updated.Role)

	super := "SUPER_ADMIN"
	_, err = uc.Update(ctx, admin, u.ID, dto.UpdateUserRequest{Role: &super})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, uc.Disable(ctx, admin, u.ID))
	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	err = uc.Disable(ctx, admin, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserUseCase_Roles(t *testing.T) {
	uc := usecase.NewUserUseCase(memory.NewStore().Users())
	roles, err := uc.Roles(entity.Actor{UserID: "v", Role: entity.RoleViewer})
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, "VIEWER", roles[0].Name)
	assert.Equal(t, "SUPER_ADMIN", roles[3].Name)
	assert.Equal(t, 3, roles[3].Level)
}

func TestItemAndLocationUseCase(t *testing.T) {
	store := memory.NewStore()
	items := usecase.NewItemUseCase(store.Items())
	locations := usecase.NewLocationUseCase(store.Locations())
	ctx := context.Background()

	it, err := items.Create(ctx, admin, dto.CreateItemRequest{SKU: " W-1 ", Name: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, "W-1", it.SKU)

	_, err = items.Create(ctx, admin, dto.CreateItemRequest{SKU: "W-1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = items.Create(ctx, staff, dto.CreateItemRequest{SKU: "W-2", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := items.GetByID(ctx, staff, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	_, err = items.GetByID(ctx, staff, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	loc, err := locations.Create(ctx, admin, dto.CreateLocationRequest{Code: "main", Name: "Bodega principal"})
	require.NoError(t, err)
	assert.Equal(t, "MAIN", loc.Code)

	list, err := locations.List(ctx, staff, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	assert.Equal(t, 20, list.Page.Limit)
}
