// Package ctxutil holds the context accessors shared by the HTTP server and
// the MCP tools. Both read the caller's JWT claims from the request context;
// keeping the keys here lets mcp avoid importing server.
package ctxutil

import (
	"context"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/model"
)

type contextKey string

const (
	keyClaims    contextKey = "claims"
	keyRequestID contextKey = "request_id"
)

// WithClaims returns a new context carrying the given claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext extracts the JWT claims from the context.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if v, ok := ctx.Value(keyClaims).(*auth.Claims); ok {
		return v
	}
	return nil
}

// RoleFromContext returns the caller's role, or "" for anonymous requests.
func RoleFromContext(ctx context.Context) model.Role {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Role
	}
	return ""
}

// WithRequestID returns a new context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}
