// Package policy centralizes role-based access decisions.
// Every route guard and assignment form goes through these functions so the
// privilege order lives in exactly one place.
package policy

import "cashbet-backoffice/internal/model"

// rank maps each role to its privilege level. Lower is more privileged.
// SuperPartner outranks the whole creation hierarchy: it is the dashboard
// operator role and may view everything.
var rank = map[model.Role]int{
	model.RoleSuperPartner: 0,
	model.RoleOwner:        1,
	model.RolePartner:      2,
	model.RoleSuperAgent:   3,
	model.RoleAgent:        4,
	model.RoleUser:         5,
}

// CanAccess reports whether an account with userRole may enter a surface
// gated at requiredRole. Unknown roles on either side always fail, so a
// malformed session can never pass a gate.
func CanAccess(userRole, requiredRole model.Role) bool {
	ur, ok := rank[userRole]
	if !ok {
		return false
	}
	rr, ok := rank[requiredRole]
	if !ok {
		return false
	}
	return ur <= rr
}

// CanAssignRole reports whether an account with creatorRole may create or
// update an account to targetRole. The target must be strictly below the
// creator in the hierarchy; equal or higher roles are rejected.
func CanAssignRole(creatorRole, targetRole model.Role) bool {
	cr, ok := rank[creatorRole]
	if !ok {
		return false
	}
	tr, ok := rank[targetRole]
	if !ok {
		return false
	}
	return tr > cr
}
