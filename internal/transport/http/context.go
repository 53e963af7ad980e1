package http

import (
	"context"

	"github.com/carebase/carebase/internal/authz"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	userIDKey   contextKey = "user_id"
	roleKey     contextKey = "role"
)

// GetTenantID retrieves the resolved tenant ID from context.
func GetTenantID(ctx context.Context) string {
	if val, ok := ctx.Value(tenantIDKey).(string); ok {
		return val
	}
	return ""
}

// GetUserID retrieves the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}

// GetRole retrieves the authenticated user's role from context.
func GetRole(ctx context.Context) authz.Role {
	if val, ok := ctx.Value(roleKey).(authz.Role); ok {
		return val
	}
	return ""
}
