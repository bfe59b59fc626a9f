package authz

import (
	"context"

	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/observability"
)

// Gate is the single entry point for protected operations. It orchestrates
// context building, the permission matrix, and the ownership invariant, and
// re-derives every answer from current data on every call.
type Gate struct {
	builder *ContextBuilder
	owners  *OwnershipChecker
	logger  *observability.Logger
	metrics *Metrics
}

// Option configures a Gate
type Option func(*Gate)

// WithLogger attaches a structured logger for decision logging
func WithLogger(logger *observability.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithMetrics attaches decision metrics
func WithMetrics(metrics *Metrics) Option {
	return func(g *Gate) { g.metrics = metrics }
}

// NewGate creates a gate over the given session resolver and directory
func NewGate(sessions SessionResolver, directory Directory, opts ...Option) *Gate {
	g := &Gate{
		builder: NewContextBuilder(sessions, directory),
		owners:  NewOwnershipChecker(directory),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Context resolves the session token into an AuthContext without enforcing
// any permission. It returns (nil, nil) when no authenticated context
// exists, for optional-auth code paths and UI-level rendering decisions.
func (g *Gate) Context(ctx context.Context, token string) (*AuthContext, error) {
	return g.builder.Build(ctx, token)
}

// Require authorizes the action for the session's actor and returns the
// authorized context. It returns *UnauthorizedError when the session is
// missing or the action is denied. Directory failures propagate as-is: an
// indeterminate check is not a deny, even though the caller must still
// block the protected operation.
func (g *Gate) Require(ctx context.Context, token string, action Action) (*AuthContext, error) {
	authCtx, err := g.builder.Build(ctx, token)
	return g.decide(ctx, authCtx, err, action)
}

// RequireForTarget authorizes an action directed at another actor. Unknown
// and cross-tenant targets both surface as the missing-session refusal, so
// the response never confirms whether the target exists.
func (g *Gate) RequireForTarget(ctx context.Context, token string, action Action, targetUserID string) (*AuthContext, error) {
	authCtx, err := g.builder.BuildWithTarget(ctx, token, targetUserID)
	return g.decide(ctx, authCtx, err, action)
}

// IsLastOwner reports whether userID is the sole remaining owner of the
// organization. Callers executing a role change, deletion, or ownership
// transfer that affects an owner must refuse the write when this returns
// true, regardless of what Require returned.
func (g *Gate) IsLastOwner(ctx context.Context, userID, orgID string) (bool, error) {
	last, err := g.owners.IsLastOwner(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	g.metrics.recordLastOwnerCheck(last)
	return last, nil
}

func (g *Gate) decide(ctx context.Context, authCtx *AuthContext, err error, action Action) (*AuthContext, error) {
	switch {
	case err != nil:
		g.metrics.recordDecision(action, outcomeError)
		if g.logger != nil {
			g.logger.WithError(err).WithField("action", string(action)).Error("authorization check failed")
		}
		return nil, err
	case authCtx == nil:
		g.metrics.recordDecision(action, outcomeNoSession)
		return nil, &UnauthorizedError{}
	case !Can(authCtx, action):
		g.metrics.recordDecision(action, outcomeDenied)
		if g.logger != nil {
			g.logger.WithFields(map[string]interface{}{
				"user_id":         authCtx.UserID,
				"organization_id": authCtx.OrganizationID,
				"action":          string(action),
			}).Warn("authorization denied")
		}
		g.auditDecision(ctx, authCtx, action, audit.EventStatusDenied, "action denied by role policy")
		return nil, &UnauthorizedError{Action: action}
	default:
		g.metrics.recordDecision(action, outcomeAllowed)
		g.auditDecision(ctx, authCtx, action, audit.EventStatusSuccess, "")
		return authCtx, nil
	}
}

// auditDecision records the decision in the request's audit trail. Audit
// failures are logged but never turn an answered check into an error.
func (g *Gate) auditDecision(ctx context.Context, authCtx *AuthContext, action Action, status audit.EventStatus, message string) {
	err := audit.FromContext(ctx).LogDecision(ctx, authCtx.UserID, authCtx.OrganizationID, string(action), status, message)
	if err != nil && g.logger != nil {
		g.logger.WithError(err).Warn("failed to record audit event")
	}
}
