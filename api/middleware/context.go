package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated operator. The user id is
// uuid.Nil when the request carries no valid identity.
func ActorFromContext(ctx context.Context) (uuid.UUID, enums.OperatorRole) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		id = uuid.Nil
	}
	return id, enums.OperatorRole(RoleFromContext(ctx))
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the operator role into the context.
func WithRole(ctx context.Context, role enums.OperatorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, string(role))
}
