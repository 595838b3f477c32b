package ports

import (
	"context"
	"time"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by every successful authentication use case.
type AuthResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Refresh(ctx context.Context, token string) (*AuthResult, error)
}

// IssuedToken is a freshly signed token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService issues and checks bearer tokens.
type TokenService interface {
	Issue(subject string) (IssuedToken, error)
	ExtractSubject(token string) (string, bool)
	Validate(token string, user *domain.User) bool
}

// PasswordHasher hashes passwords and performs constant-time comparison.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// LoginThrottle tracks failed logins per username.
type LoginThrottle interface {
	Locked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
