package ctxutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/ctxutil"
	"github.com/ashita-ai/manabi/internal/model"
)

func TestClaimsRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.ClaimsFromContext(ctx))
	assert.Equal(t, model.Role(""), ctxutil.RoleFromContext(ctx))

	claims := &auth.Claims{Name: "ops", Role: model.RoleAdmin}
	ctx = ctxutil.WithClaims(ctx, claims)
	assert.Same(t, claims, ctxutil.ClaimsFromContext(ctx))
	assert.Equal(t, model.RoleAdmin, ctxutil.RoleFromContext(ctx))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.RequestIDFromContext(ctx))
	ctx = ctxutil.WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", ctxutil.RequestIDFromContext(ctx))
}
