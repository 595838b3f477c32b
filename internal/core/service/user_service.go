package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

const (
	MaxProfileImageSize = 20 << 20

	defaultPageSize = 20
	maxPageSize     = 100
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
}

// UserService implements profile reads and account administration.
type UserService struct {
	repo   ports.UserRepository
	images ports.ImageStore
	audit  ports.AuditSink
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, images ports.ImageStore, audit ports.AuditSink, log zerolog.Logger) *UserService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &UserService{repo: repo, images: images, audit: audit, log: log, now: time.Now}
}

func (s *UserService) Profile(ctx context.Context, caller domain.Principal) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, caller.Username)
}

// Get returns a user to an admin or to the account owner.
func (s *UserService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.User, error) {
	if !canAccess(caller, id) {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes an account. Owners may delete themselves, admins anyone, and
// only admins may delete admin accounts.
func (s *UserService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	if !canAccess(caller, id) {
		return domain.ErrForbidden
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin() && !caller.Role.Allows(domain.RoleAdmin) {
		s.log.Warn().Str("actor", caller.Username).Str("target_id", id).Msg("non-admin attempted to delete admin account")
		return domain.ErrForbidden
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if target.ProfileImageURL != "" {
		if err := s.images.Delete(ctx, target.ProfileImageURL); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("failed to delete profile image")
		}
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserDeleted,
		Username:   target.Username,
		UserID:     target.ID,
		ActorID:    caller.UserID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Info().Str("actor", caller.Username).Str("user_id", id).Msg("user deleted")
	return nil
}

// List returns one 0-based page of users. Size is clamped to [1, 100].
func (s *UserService) List(ctx context.Context, page, size int) (*ports.UserPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if int64(page) > math.MaxInt64/int64(size) {
		return nil, domain.NewValidationError("page is out of range")
	}

	users, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &ports.UserPage{Items: users, Page: page, Size: size, Total: total}, nil
}

func (s *UserService) UpdateRole(ctx context.Context, caller domain.Principal, id, role string) (*domain.User, error) {
	if !caller.Role.Allows(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	newRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("Invalid role: %s. Valid roles are: %s", role, joinRoles()))
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := user.Role
	user.SetRole(newRole, s.now())
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventRoleChanged,
		Username:   user.Username,
		UserID:     user.ID,
		ActorID:    caller.UserID,
		Detail:     fmt.Sprintf("%s -> %s", previous, newRole),
		OccurredAt: user.UpdatedAt,
	})
	s.log.Info().Str("actor", caller.Username).Str("user_id", id).Str("role", newRole.String()).Msg("role updated")
	return user, nil
}

// UpdateProfileImage stores a new image for the caller and removes the old one.
func (s *UserService) UpdateProfileImage(ctx context.Context, caller domain.Principal, upload ports.ImageUpload) (*domain.User, error) {
	if _, ok := allowedImageTypes[strings.ToLower(upload.ContentType)]; !ok {
		return nil, &domain.FileError{Detail: "Invalid file type. Only JPEG, PNG and GIF files are allowed."}
	}
	if upload.Size > MaxProfileImageSize {
		return nil, &domain.FileError{Detail: "File size too large. Maximum size is 20MB."}
	}

	user, err := s.repo.FindByUsername(ctx, caller.Username)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("profile_%s_%s.%s", user.ID, uuid.NewString(), imageExtension(upload.Filename))
	ref, err := s.images.Save(ctx, name, upload.ContentType, upload.Content, upload.Size)
	if err != nil {
		return nil, fmt.Errorf("store profile image: %w", err)
	}

	previous := user.SetProfileImage(ref, s.now())
	if err := s.repo.Update(ctx, user); err != nil {
		if delErr := s.images.Delete(ctx, ref); delErr != nil {
			s.log.Warn().Err(delErr).Str("ref", ref).Msg("failed to roll back stored image")
		}
		return nil, fmt.Errorf("update profile image: %w", err)
	}

	if previous != "" && previous != ref {
		if err := s.images.Delete(ctx, previous); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Str("ref", previous).Msg("failed to delete previous profile image")
		}
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventProfileImageUpdated,
		Username:   user.Username,
		UserID:     user.ID,
		OccurredAt: user.UpdatedAt,
	})
	s.log.Info().Str("username", user.Username).Str("ref", ref).Msg("profile image updated")
	return user, nil
}

func canAccess(caller domain.Principal, id string) bool {
	return caller.Role.Allows(domain.RoleAdmin) || caller.Owns(id)
}

func joinRoles() string {
	roles := domain.Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

// imageExtension returns the lowercased alphanumeric extension of filename, or "jpg".
func imageExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || len(ext) > 5 {
		return "jpg"
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "jpg"
		}
	}
	return ext
}
