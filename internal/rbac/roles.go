package rbac

import "declaration-platform/internal/auth"

// CanCommit reports whether role may commit a declaration plan.
func CanCommit(role auth.Role) bool { return role == auth.RoleAdmin }
