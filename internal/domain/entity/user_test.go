package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func TestRoleHierarchy(t *testing.T) {
	roles := entity.Roles()
	require.Len(t, roles, 4)
	for i := range roles {
		for j := range roles {
			assert.Equal(t, i >= j, roles[i].AtLeast(roles[j]), "%s >= %s", roles[i], roles[j])
		}
	}
	assert.Equal(t, -1, entity.CompareRoles(entity.RoleViewer, entity.RoleStaff))
	assert.Equal(t, 0, entity.CompareRoles(entity.RoleAdmin, entity.RoleAdmin))
	assert.Equal(t, 1, entity.CompareRoles(entity.RoleSuperAdmin, entity.RoleAdmin))
}

func TestRoleInvalido(t *testing.T) {
	bogus := entity.Role("OWNER")
	assert.False(t, bogus.Valid())
	assert.False(t, bogus.AtLeast(entity.RoleViewer))
	assert.False(t, entity.RoleSuperAdmin.AtLeast(bogus))
}

func TestParseRole(t *testing.T) {
	r, err := entity.ParseRole("super_admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSuperAdmin, r)

	r, err = entity.ParseRole(" Staff ")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, r)

	_, err = entity.ParseRole("root")
	assert.Error(t, err)
}

func TestActorCan(t *testing.T) {
	staff := entity.Actor{UserID: "u1", Role: entity.RoleStaff}
	assert.True(t, staff.Can(entity.RoleViewer))
	assert.True(t, staff.Can(entity.RoleStaff))
	assert.False(t, staff.Can(entity.RoleAdmin))

	anonymous := entity.Actor{Role: entity.RoleSuperAdmin}
	assert.False(t, anonymous.Can(entity.RoleViewer))
}

func TestTransactionTypeRequiredRole(t *testing.T) {
	assert.Equal(t, entity.RoleStaff, entity.TransactionIN.RequiredRole())
	assert.Equal(t, entity.RoleStaff, entity.TransactionOUT.RequiredRole())
	assert.Equal(t, entity.RoleStaff, entity.TransactionTRANSFER.RequiredRole())
	assert.Equal(t, entity.RoleAdmin, entity.TransactionADJUSTMENT.RequiredRole())
	assert.False(t, entity.TransactionType("GIFT").Valid())
}
