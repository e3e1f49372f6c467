package auth

import "github.com/golang-jwt/jwt/v5"

// Role is the coarse permission label carried in every access token.
type Role string

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ParseRole maps a claim value onto a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// Claims are the only supported JWT claims shape for this service.
// Wire payload: {"username", "role", "iat", "exp", "jti"} plus iss/aud when configured.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
	Role     Role   `json:"role"`
}
