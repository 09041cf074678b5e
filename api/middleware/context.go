package middleware

import (
	"context"

	"github.com/angelmondragon/buttery-backend/pkg/enums"
)

type contextKey string

const (
	ctxNetID contextKey = "netid"
	ctxRole  contextKey = "role"
	ctxJTI   contextKey = "access_id"
)

func NetIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxNetID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the session id (JWT jti) of the current request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxJTI).(string); ok {
		return v
	}
	return ""
}

// WithIdentity injects an authenticated caller. Auth uses it; tests use it to skip token minting.
func WithIdentity(ctx context.Context, netID string, role enums.UserRole, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxNetID, netID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxJTI, accessID)
}
