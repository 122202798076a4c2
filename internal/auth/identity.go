// Package auth provides API key authentication middleware for the
// gateway's HTTP surface.
package auth

import "context"

// TenantContext is the request-scoped identity attached by the
// middleware after a credential resolves. It is never persisted.
type TenantContext struct {
	TenantID string
	KeyID    string
}

// tenantContextKey is the context key for the tenant identity.
type tenantContextKey struct{}

// ContextWithTenant attaches the tenant identity to the context.
func ContextWithTenant(ctx context.Context, tenant *TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// TenantFromContext extracts the tenant identity from the context, or
// nil when the request was not authenticated.
func TenantFromContext(ctx context.Context) *TenantContext {
	tenant, _ := ctx.Value(tenantContextKey{}).(*TenantContext)
	return tenant
}
