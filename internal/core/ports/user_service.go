package ports

import (
	"context"
	"io"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// ImageUpload is a profile image as received from the transport layer.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UserPage is one page of the user listing.
type UserPage struct {
	Items []*domain.User
	Page  int
	Size  int
	Total int64
}

// UserService covers profile and account administration. Every method that acts
// on behalf of a caller takes the request principal explicitly.
type UserService interface {
	Profile(ctx context.Context, caller domain.Principal) (*domain.User, error)
	Get(ctx context.Context, caller domain.Principal, id string) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Principal, id string) error
	List(ctx context.Context, page, size int) (*UserPage, error)
	UpdateRole(ctx context.Context, caller domain.Principal, id, role string) (*domain.User, error)
	UpdateProfileImage(ctx context.Context, caller domain.Principal, upload ImageUpload) (*domain.User, error)
}

// ImageStore persists profile images. Save returns the reference stored on the
// user: either an absolute URL or a path relative to the public base URL.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
}
