package auth

import "context"

// RoleResolver decides which role a freshly authenticated username receives.
// Real role derivation belongs to an identity provider.
type RoleResolver interface {
	ResolveRole(ctx context.Context, username string) (Role, error)
}

// StaticRoleResolver grants the same role to everyone.
type StaticRoleResolver struct {
	Role Role
}

func (r StaticRoleResolver) ResolveRole(_ context.Context, _ string) (Role, error) {
	return r.Role, nil
}
