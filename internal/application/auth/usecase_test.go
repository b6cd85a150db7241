package auth_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

const secret = "test-secret"

func newAuth(t *testing.T) (*auth.AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "stock-ledger-test"}, zerolog.Nop())
	created, err := uc.Bootstrap(context.Background(), "root@example.com", "supersecreto")
	require.NoError(t, err)
	require.True(t, created)
	return uc, store
}

func TestBootstrap_Idempotent(t *testing.T) {
	uc, _ := newAuth(t)
	created, err := uc.Bootstrap(context.Background(), "root@example.com", "otra")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = uc.Bootstrap(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLogin(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "root@example.com", Password: "supersecreto"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "SUPER_ADMIN", resp.User.Role)

	claims, err := pkgjwt.Parse(secret, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "SUPER_ADMIN", claims.Role)

	// username del formulario OAuth2 equivale al email
	_, err = uc.Login(ctx, dto.LoginRequest{Username: "root@example.com", Password: "supersecreto"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "root@example.com", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_InactiveUser(t *testing.T) {
	uc, store := newAuth(t)
	ctx := context.Background()
	user, err := store.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, store.Users().Update(ctx, user))

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "root@example.com", Password: "supersecreto"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Me(ctx, entity.Actor{UserID: user.ID, Role: entity.RoleSuperAdmin})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
