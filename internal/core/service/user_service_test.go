package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

type userFixture struct {
	svc    *UserService
	repo   *stubUserRepo
	images *memImageStore
	audit  *recordingAudit
	alice  *domain.User // USER
	bob    *domain.User // USER
	root   *domain.User // ADMIN
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	repo := newStubUserRepo()
	images := newMemImageStore()
	audit := &recordingAudit{}
	svc := NewUserService(repo, images, audit, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	return &userFixture{
		svc:    svc,
		repo:   repo,
		images: images,
		audit:  audit,
		alice:  repo.put(&domain.User{Username: "alice", Email: "alice@example.com", Role: domain.RoleUser, Enabled: true}),
		bob:    repo.put(&domain.User{Username: "bob", Email: "bob@example.com", Role: domain.RoleUser, Enabled: true}),
		root:   repo.put(&domain.User{Username: "root", Email: "root@example.com", Role: domain.RoleAdmin, Enabled: true}),
	}
}

func TestUserService_Profile(t *testing.T) {
	f := newUserFixture(t)

	u, err := f.svc.Profile(context.Background(), domain.NewPrincipal(f.alice))
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}

	_, err = f.svc.Profile(context.Background(), domain.Principal{Username: "ghost", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Get_Authorization(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Get(ctx, domain.NewPrincipal(f.alice), f.alice.ID); err != nil {
		t.Fatalf("owner should read own account: %v", err)
	}
	if _, err := f.svc.Get(ctx, domain.NewPrincipal(f.alice), f.bob.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, domain.NewPrincipal(f.root), f.bob.ID); err != nil {
		t.Fatalf("admin should read any account: %v", err)
	}
	if _, err := f.svc.Get(ctx, domain.NewPrincipal(f.root), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.alice), f.bob.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting another user, got %v", err)
	}
	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.alice), f.root.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting an admin, got %v", err)
	}
	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.alice), f.alice.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.root), f.bob.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.root), f.bob.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}

	got := f.audit.types()
	if len(got) != 2 || got[0] != domain.EventUserDeleted || got[1] != domain.EventUserDeleted {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestUserService_Delete_RemovesImage(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	updated, err := f.svc.UpdateProfileImage(ctx, domain.NewPrincipal(f.alice), ports.ImageUpload{
		Filename: "me.png", ContentType: "image/png", Size: 3, Content: strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := f.svc.Delete(ctx, domain.NewPrincipal(f.alice), f.alice.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := f.images.objects[updated.ProfileImageURL]; ok {
		t.Fatalf("expected image %s to be removed", updated.ProfileImageURL)
	}
}

func TestUserService_List_ClampsPaging(t *testing.T) {
	f := newUserFixture(t)

	page, err := f.svc.List(context.Background(), -1, 1000)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Page != 0 || page.Size != 100 {
		t.Fatalf("expected page 0 size 100, got %d/%d", page.Page, page.Size)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("expected 3 users, got total=%d items=%d", page.Total, len(page.Items))
	}

	page, _ = f.svc.List(context.Background(), 1, 2)
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(page.Items))
	}

	page, _ = f.svc.List(context.Background(), 0, 0)
	if page.Size != 20 {
		t.Fatalf("expected default size 20, got %d", page.Size)
	}
}

func TestUserService_List_RejectsOverflowingPage(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.List(context.Background(), math.MaxInt64/20+1, 20)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Detail != "page is out of range" {
		t.Fatalf("unexpected detail: %q", ve.Detail)
	}

	page, err := f.svc.List(context.Background(), 461168601842738791/1000, 20)
	if err != nil {
		t.Fatalf("large in-range page should not fail: %v", err)
	}
	if len(page.Items) != 0 || page.Total != 3 {
		t.Fatalf("expected empty page with total 3, got items=%d total=%d", len(page.Items), page.Total)
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.UpdateRole(ctx, domain.NewPrincipal(f.root), f.alice.ID, "admin")
	if err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", u.Role)
	}
	stored, _ := f.repo.FindByID(ctx, f.alice.ID)
	if stored.Role != domain.RoleAdmin || stored.UpdatedAt.IsZero() {
		t.Fatalf("role change not persisted: %+v", stored)
	}

	_, err = f.svc.UpdateRole(ctx, domain.NewPrincipal(f.root), f.bob.ID, "superuser")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Detail != "Invalid role: superuser. Valid roles are: USER, ADMIN" {
		t.Fatalf("unexpected detail: %q", ve.Detail)
	}

	if _, err := f.svc.UpdateRole(ctx, domain.NewPrincipal(f.bob), f.bob.ID, "ADMIN"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
}

func TestUserService_UpdateProfileImage(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	caller := domain.NewPrincipal(f.alice)

	first, err := f.svc.UpdateProfileImage(ctx, caller, ports.ImageUpload{
		Filename: "avatar.PNG", ContentType: "image/png", Size: 4, Content: strings.NewReader("one!"),
	})
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if !strings.HasPrefix(first.ProfileImageURL, "/uploads/profile_"+f.alice.ID+"_") || !strings.HasSuffix(first.ProfileImageURL, ".png") {
		t.Fatalf("unexpected image ref %q", first.ProfileImageURL)
	}

	second, err := f.svc.UpdateProfileImage(ctx, caller, ports.ImageUpload{
		Filename: "noext", ContentType: "image/jpeg", Size: 4, Content: strings.NewReader("two!"),
	})
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if !strings.HasSuffix(second.ProfileImageURL, ".jpg") {
		t.Fatalf("expected jpg fallback extension, got %q", second.ProfileImageURL)
	}
	if _, ok := f.images.objects[first.ProfileImageURL]; ok {
		t.Fatalf("previous image should be deleted")
	}
	if len(f.images.objects) != 1 {
		t.Fatalf("expected exactly one stored image, got %d", len(f.images.objects))
	}
}

func TestUserService_UpdateProfileImage_Rejects(t *testing.T) {
	f := newUserFixture(t)
	caller := domain.NewPrincipal(f.alice)

	_, err := f.svc.UpdateProfileImage(context.Background(), caller, ports.ImageUpload{
		Filename: "notes.txt", ContentType: "text/plain", Size: 10, Content: strings.NewReader("hello"),
	})
	if !errors.Is(err, domain.ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile for text/plain, got %v", err)
	}

	_, err = f.svc.UpdateProfileImage(context.Background(), caller, ports.ImageUpload{
		Filename: "big.png", ContentType: "image/png", Size: MaxProfileImageSize + 1, Content: strings.NewReader(""),
	})
	if !errors.Is(err, domain.ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile for oversize image, got %v", err)
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("nothing should be stored on rejection")
	}
}

func TestUserService_UpdateProfileImage_RollsBackOnUpdateFailure(t *testing.T) {
	f := newUserFixture(t)
	f.repo.updateErr = errors.New("write conflict")

	_, err := f.svc.UpdateProfileImage(context.Background(), domain.NewPrincipal(f.alice), ports.ImageUpload{
		Filename: "a.gif", ContentType: "image/gif", Size: 1, Content: strings.NewReader("g"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("stored image should be rolled back")
	}
}

func TestImageExtension(t *testing.T) {
	cases := map[string]string{
		"photo.JPEG":   "jpeg",
		"a.b.png":      "png",
		"":             "jpg",
		"noext":        "jpg",
		"evil.p/hp":    "jpg",
		"x.toolongext": "jpg",
	}
	for in, want := range cases {
		if got := imageExtension(in); got != want {
			t.Errorf("imageExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
