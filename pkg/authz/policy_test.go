package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanOwnerAllowsEveryAction(t *testing.T) {
	ctx := &AuthContext{UserID: "u1", Role: RoleOwner, OrganizationID: "o1"}
	for _, action := range Actions() {
		assert.True(t, Can(ctx, action), "owner should be allowed %s", action)
	}
}

func TestCanUserDeniesEveryAction(t *testing.T) {
	ctx := &AuthContext{UserID: "u1", Role: RoleUser, OrganizationID: "o1"}
	for _, action := range Actions() {
		assert.False(t, Can(ctx, action), "plain user should be denied %s", action)
	}
}

func TestCanAdmin(t *testing.T) {
	tests := []struct {
		name       string
		action     Action
		targetID   string
		targetRole Role
		allowed    bool
	}{
		{name: "read users", action: ActionUserRead, allowed: true},
		{name: "update users", action: ActionUserUpdate, allowed: true},
		{name: "invite users", action: ActionUserInvite, allowed: true},
		{name: "read org", action: ActionOrgRead, allowed: true},
		{name: "update org", action: ActionOrgUpdate, allowed: true},
		{name: "settings access", action: ActionAdminSettings, allowed: true},

		{name: "role change on plain user", action: ActionUserRoleChange, targetID: "t1", targetRole: RoleUser, allowed: true},
		{name: "role change on admin", action: ActionUserRoleChange, targetID: "t1", targetRole: RoleAdmin, allowed: false},
		{name: "role change on owner", action: ActionUserRoleChange, targetID: "t1", targetRole: RoleOwner, allowed: false},
		{name: "role change without target", action: ActionUserRoleChange, allowed: false},

		{name: "delete plain user", action: ActionUserDelete, targetID: "t1", targetRole: RoleUser, allowed: true},
		{name: "delete admin", action: ActionUserDelete, targetID: "t1", targetRole: RoleAdmin, allowed: false},
		{name: "delete owner", action: ActionUserDelete, targetID: "t1", targetRole: RoleOwner, allowed: false},

		{name: "ownership transfer", action: ActionOwnerTransfer, allowed: false},
		{name: "ownership transfer with user target", action: ActionOwnerTransfer, targetID: "t1", targetRole: RoleUser, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &AuthContext{
				UserID:         "a1",
				Role:           RoleAdmin,
				OrganizationID: "o1",
				TargetUserID:   tt.targetID,
				TargetUserRole: tt.targetRole,
			}
			assert.Equal(t, tt.allowed, Can(ctx, tt.action))
		})
	}
}

func TestCanFailsClosed(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		assert.False(t, Can(nil, ActionUserRead))
	})

	t.Run("unknown action", func(t *testing.T) {
		ctx := &AuthContext{UserID: "u1", Role: RoleOwner, OrganizationID: "o1"}
		assert.False(t, Can(ctx, Action("billing:refund")))
	})

	t.Run("unknown role", func(t *testing.T) {
		ctx := &AuthContext{UserID: "u1", Role: Role("superadmin"), OrganizationID: "o1"}
		assert.False(t, Can(ctx, ActionUserRead))
	})

	t.Run("target role outside the closed set", func(t *testing.T) {
		ctx := &AuthContext{
			UserID:         "a1",
			Role:           RoleAdmin,
			OrganizationID: "o1",
			TargetUserID:   "t1",
			TargetUserRole: Role("manager"),
		}
		assert.False(t, Can(ctx, ActionUserRoleChange))
	})
}

func TestPolicyTableCoversEveryAction(t *testing.T) {
	// Every action in the closed set must have an explicit owner cell so a
	// newly added action cannot silently fall through for owners.
	for _, action := range Actions() {
		_, ok := policyTable[RoleOwner][action]
		assert.True(t, ok, "owner row missing cell for %s", action)
	}
}
