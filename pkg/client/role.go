package client

import (
	"declaration-platform/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

// RoleFromToken reads the role claim from a token without checking its
// signature. Anything unreadable yields auth.RoleUser.
//
// The result is a display hint only. The server never trusts it.
func RoleFromToken(token string) auth.Role {
	if token == "" {
		return auth.RoleUser
	}
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return auth.RoleUser
	}
	role, ok := auth.ParseRole(string(claims.Role))
	if !ok {
		return auth.RoleUser
	}
	return role
}
