package domain

import "context"

// Principal is the authenticated caller of a single request.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// NewPrincipal derives a principal from a loaded user.
func NewPrincipal(u *User) Principal {
	return Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Owns reports whether the principal is the account with the given id.
func (p Principal) Owns(userID string) bool {
	return p.UserID != "" && p.UserID == userID
}

type principalKey struct{}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal bound by the authentication gate, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
