package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxClaims ctxKey = iota

// WithClaims attaches verified claims to a request-scoped context.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

func Username(ctx context.Context) (string, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.Username != "" {
		return c.Username, nil
	}
	return "", errors.New("username not in context")
}

func RoleFrom(ctx context.Context) (Role, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.Role != "" {
		return c.Role, nil
	}
	return "", errors.New("role not in context")
}
