package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cashbet-backoffice/internal/model"
)

// TestCanAccess checks the role gate across the privilege order.
func TestCanAccess(t *testing.T) {
	tests := []struct {
		name     string
		userRole model.Role
		required model.Role
		want     bool
	}{
		{"super partner reaches super partner gate", model.RoleSuperPartner, model.RoleSuperPartner, true},
		{"owner reaches partner gate", model.RoleOwner, model.RolePartner, true},
		{"agent reaches agent gate", model.RoleAgent, model.RoleAgent, true},
		{"agent blocked from partner gate", model.RoleAgent, model.RolePartner, false},
		{"user blocked from super partner gate", model.RoleUser, model.RoleSuperPartner, false},
		{"unknown user role always fails", model.Role("Hacker"), model.RoleUser, false},
		{"unknown required role always fails", model.RoleOwner, model.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.userRole, tt.required))
		})
	}
}

// TestCanAssignRole checks that assignable roles are strictly below the creator's.
func TestCanAssignRole(t *testing.T) {
	tests := []struct {
		name    string
		creator model.Role
		target  model.Role
		want    bool
	}{
		{"owner assigns partner", model.RoleOwner, model.RolePartner, true},
		{"owner assigns user", model.RoleOwner, model.RoleUser, true},
		{"agent assigns user", model.RoleAgent, model.RoleUser, true},
		{"owner cannot assign owner", model.RoleOwner, model.RoleOwner, false},
		{"agent cannot assign super agent", model.RoleAgent, model.RoleSuperAgent, false},
		{"user assigns nothing", model.RoleUser, model.RoleUser, false},
		{"unknown creator fails", model.Role(""), model.RoleUser, false},
		{"unknown target fails", model.RoleOwner, model.Role("Wizard"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAssignRole(tt.creator, tt.target))
		})
	}
}

// TestHierarchyOrderIsStrict verifies every adjacent pair in the hierarchy
// assigns downward only.
func TestHierarchyOrderIsStrict(t *testing.T) {
	roles := model.HierarchyRoles()
	for i := 0; i < len(roles)-1; i++ {
		assert.True(t, CanAssignRole(roles[i], roles[i+1]),
			"%s should assign %s", roles[i], roles[i+1])
		assert.False(t, CanAssignRole(roles[i+1], roles[i]),
			"%s should not assign %s", roles[i+1], roles[i])
	}
}
