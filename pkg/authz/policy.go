package authz

// decision is the outcome of a single policy table cell
type decision int

const (
	denyAlways decision = iota
	allowAlways
	allowForTargetRoles
)

// rule is one cell of the role/action policy matrix. Actions absent from a
// role's row are denied, so new actions are deny-by-default until the matrix
// grants them.
type rule struct {
	decision    decision
	targetRoles map[Role]bool // roles the action may target, for allowForTargetRoles
}

// policyTable maps role and action to a decision. Adding a role or action is
// a data change here, not a new conditional branch in Can.
//
// Owners pass every cell, including role changes on themselves; the
// last-owner safety guard lives in OwnershipChecker, not in this table,
// because it needs a point-in-time member count rather than a static role
// comparison.
var policyTable = map[Role]map[Action]rule{
	RoleOwner: {
		ActionUserRead:       {decision: allowAlways},
		ActionUserUpdate:     {decision: allowAlways},
		ActionUserRoleChange: {decision: allowAlways},
		ActionUserDelete:     {decision: allowAlways},
		ActionUserInvite:     {decision: allowAlways},
		ActionOrgRead:        {decision: allowAlways},
		ActionOrgUpdate:      {decision: allowAlways},
		ActionOwnerTransfer:  {decision: allowAlways},
		ActionAdminSettings:  {decision: allowAlways},
	},
	RoleAdmin: {
		ActionUserRead:      {decision: allowAlways},
		ActionUserUpdate:    {decision: allowAlways},
		ActionUserInvite:    {decision: allowAlways},
		ActionOrgRead:       {decision: allowAlways},
		ActionOrgUpdate:     {decision: allowAlways},
		ActionAdminSettings: {decision: allowAlways},

		// Admins may only act on plain users: no promoting to admin/owner,
		// no editing or deleting existing admins/owners.
		ActionUserRoleChange: {decision: allowForTargetRoles, targetRoles: map[Role]bool{RoleUser: true}},
		ActionUserDelete:     {decision: allowForTargetRoles, targetRoles: map[Role]bool{RoleUser: true}},

		// Ownership transfer is owner-exclusive.
		ActionOwnerTransfer: {decision: denyAlways},
	},
	// RoleUser has no row: plain users hold no administrative capability.
}

// Can reports whether the context is permitted to perform the action. Pure
// and deterministic; unknown roles and actions fail closed.
func Can(ctx *AuthContext, action Action) bool {
	if ctx == nil {
		return false
	}
	row, ok := policyTable[ctx.Role]
	if !ok {
		return false
	}
	r, ok := row[action]
	if !ok {
		return false
	}
	switch r.decision {
	case allowAlways:
		return true
	case allowForTargetRoles:
		if !ctx.HasTarget() || !ctx.TargetUserRole.Valid() {
			return false
		}
		return r.targetRoles[ctx.TargetUserRole]
	default:
		return false
	}
}
