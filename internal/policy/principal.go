package policy

import "context"

// Principal describes the authenticated actor for a single request.
// It is passed explicitly into every policy check; there is no ambient
// current-user state. The rules only ever key on identity and role, so
// nothing else from the account travels here.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the principal's effective role is admin.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
