package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorityFromFlags(t *testing.T) {
	u := &User{Manager: true, DataMgr: true}
	assert.Equal(t, []string{RoleManager, RoleDataManager}, u.Authority())
	assert.True(t, u.HasRole(RoleManager))
	assert.False(t, u.HasRole(RoleTaskManager))
	assert.False(t, u.HasRole("no-such-role"))
}

func TestGrantAll(t *testing.T) {
	u := &User{}
	assert.Empty(t, u.Authority())
	u.GrantAll()
	assert.Equal(t, Roles, u.Authority())
}

func TestAuthorityStringCanonical(t *testing.T) {
	// Order and duplicates in the input must not affect the canonical form.
	a := AuthorityString([]string{RoleDataManager, RoleManager})
	b := AuthorityString([]string{RoleManager, RoleDataManager, RoleManager})
	assert.Equal(t, a, b)
	assert.Equal(t, "manager,data-manager", a)
	assert.Equal(t, "", AuthorityString(nil))
}

func TestHoldsRole(t *testing.T) {
	roles := []string{RoleManager, RoleTaskManager}
	assert.True(t, HoldsRole(roles, RoleTaskManager))
	assert.False(t, HoldsRole(roles, RoleDataManager))
	assert.False(t, HoldsRole(nil, RoleManager))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "user not found", E(CodeNoUser, "").Error())
	assert.Equal(t, "a@x.com", E(CodeNoUser, "a@x.com").Error())
}
