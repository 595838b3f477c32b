package ports

import (
	"context"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// UserRepository is the identity store. Lookups that find nothing return
// domain.ErrUserNotFound.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create stores a new user and returns it with its assigned ID. A unique index
	// violation maps to domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	DeleteByID(ctx context.Context, id string) error
	// List returns one page (0-based) ordered by creation time, plus the total count.
	List(ctx context.Context, page, size int) ([]*domain.User, int64, error)
}
