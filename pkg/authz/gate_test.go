package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagehq/gearbox/pkg/audit"
)

func newTestGate(opts ...Option) *Gate {
	resolver := &fakeResolver{tokens: map[string]string{
		"tok-owner": "u-owner",
		"tok-admin": "u-admin",
		"tok-staff": "u-staff",
	}}
	directory := &fakeDirectory{actors: map[string]*Actor{
		"u-owner":   {ID: "u-owner", Role: RoleOwner, OrganizationID: "o1"},
		"u-admin":   {ID: "u-admin", Role: RoleAdmin, OrganizationID: "o1"},
		"u-staff":   {ID: "u-staff", Role: RoleUser, OrganizationID: "o1"},
		"u-foreign": {ID: "u-foreign", Role: RoleOwner, OrganizationID: "o2"},
	}}
	return NewGate(resolver, directory, opts...)
}

func TestGateRequire(t *testing.T) {
	gate := newTestGate()

	t.Run("allowed action returns the context", func(t *testing.T) {
		authCtx, err := gate.Require(context.Background(), "tok-admin", ActionUserInvite)
		require.NoError(t, err)
		require.NotNil(t, authCtx)
		assert.Equal(t, "u-admin", authCtx.UserID)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := gate.Require(context.Background(), "", ActionUserRead)
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))

		var ue *UnauthorizedError
		require.ErrorAs(t, err, &ue)
		assert.True(t, ue.NoSession())
	})

	t.Run("denied action", func(t *testing.T) {
		_, err := gate.Require(context.Background(), "tok-staff", ActionOrgUpdate)
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))

		var ue *UnauthorizedError
		require.ErrorAs(t, err, &ue)
		assert.False(t, ue.NoSession())
		assert.Equal(t, ActionOrgUpdate, ue.Action)
	})

	t.Run("directory failure is not a deny", func(t *testing.T) {
		resolver := &fakeResolver{tokens: map[string]string{"tok": "u1"}}
		broken := NewGate(resolver, &fakeDirectory{err: errDirectoryDown})

		_, err := broken.Require(context.Background(), "tok", ActionUserRead)
		require.Error(t, err)
		assert.False(t, IsUnauthorized(err))
		assert.ErrorIs(t, err, errDirectoryDown)
	})
}

func TestGateRequireForTarget(t *testing.T) {
	gate := newTestGate()

	t.Run("admin acting on a plain user", func(t *testing.T) {
		authCtx, err := gate.RequireForTarget(context.Background(), "tok-admin", ActionUserDelete, "u-staff")
		require.NoError(t, err)
		assert.Equal(t, "u-staff", authCtx.TargetUserID)
		assert.Equal(t, RoleUser, authCtx.TargetUserRole)
	})

	t.Run("admin acting on an owner is denied before any invariant check", func(t *testing.T) {
		_, err := gate.RequireForTarget(context.Background(), "tok-admin", ActionUserDelete, "u-owner")
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("cross-tenant target refused even for an owner", func(t *testing.T) {
		_, err := gate.RequireForTarget(context.Background(), "tok-owner", ActionUserRead, "u-foreign")
		require.Error(t, err)

		var ue *UnauthorizedError
		require.ErrorAs(t, err, &ue)
		assert.True(t, ue.NoSession(), "cross-tenant refusal must not name the action or the target")
	})
}

func TestGateIsLastOwner(t *testing.T) {
	gate := newTestGate()

	// o1 has exactly one owner; Require allows the role change but the
	// invariant check must still make the caller refuse the write.
	authCtx, err := gate.Require(context.Background(), "tok-owner", ActionUserRoleChange)
	require.NoError(t, err)

	last, err := gate.IsLastOwner(context.Background(), authCtx.UserID, authCtx.OrganizationID)
	require.NoError(t, err)
	assert.True(t, last)
}

func TestGateRecordsDecisionMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	gate := newTestGate(WithMetrics(metrics))

	_, err := gate.Require(context.Background(), "tok-owner", ActionOrgRead)
	require.NoError(t, err)
	_, err = gate.Require(context.Background(), "tok-staff", ActionOrgRead)
	require.Error(t, err)

	allowed := testutil.ToFloat64(metrics.DecisionsTotal.WithLabelValues(string(ActionOrgRead), outcomeAllowed))
	denied := testutil.ToFloat64(metrics.DecisionsTotal.WithLabelValues(string(ActionOrgRead), outcomeDenied))
	assert.Equal(t, 1.0, allowed)
	assert.Equal(t, 1.0, denied)
}

func TestGateRecordsAuditEvents(t *testing.T) {
	gate := newTestGate()

	t.Run("denied action lands in the audit trail", func(t *testing.T) {
		recorder := &recordingAuditLogger{}
		ctx := audit.WithLogger(context.Background(), recorder)

		_, err := gate.Require(ctx, "tok-staff", ActionOrgUpdate)
		require.Error(t, err)

		require.Len(t, recorder.events, 1)
		event := recorder.events[0]
		assert.Equal(t, audit.EventTypeAuthzAccessDenied, event.EventType)
		assert.Equal(t, audit.EventStatusDenied, event.Status)
		assert.Equal(t, "u-staff", event.UserID)
		assert.Equal(t, "o1", event.OrganizationID)
		assert.Equal(t, string(ActionOrgUpdate), event.Action)
	})

	t.Run("allowed action is recorded as a decision", func(t *testing.T) {
		recorder := &recordingAuditLogger{}
		ctx := audit.WithLogger(context.Background(), recorder)

		_, err := gate.Require(ctx, "tok-admin", ActionUserInvite)
		require.NoError(t, err)

		require.Len(t, recorder.events, 1)
		assert.Equal(t, audit.EventTypeAuthzDecision, recorder.events[0].EventType)
		assert.Equal(t, audit.EventStatusSuccess, recorder.events[0].Status)
	})

	t.Run("anonymous refusals are not audited", func(t *testing.T) {
		recorder := &recordingAuditLogger{}
		ctx := audit.WithLogger(context.Background(), recorder)

		_, err := gate.Require(ctx, "", ActionOrgRead)
		require.Error(t, err)
		assert.Empty(t, recorder.events)
	})
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsUnauthorized(&UnauthorizedError{Action: ActionUserRead}))
	assert.False(t, IsUnauthorized(errors.New("boom")))
	assert.True(t, IsLastOwnerViolation(&LastOwnerError{UserID: "a", OrganizationID: "o1"}))
	assert.False(t, IsLastOwnerViolation(&UnauthorizedError{}))
}
