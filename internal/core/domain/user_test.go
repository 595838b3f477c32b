package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRole_Allows(t *testing.T) {
	cases := []struct {
		have, need Role
		want       bool
	}{
		{RoleUser, RoleUser, true},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleUser, RoleAdmin, false},
		{Role("GUEST"), RoleUser, false},
		{RoleAdmin, Role("ROOT"), false},
	}
	for _, c := range cases {
		if got := c.have.Allows(c.need); got != c.want {
			t.Errorf("%s.Allows(%s) = %v, want %v", c.have, c.need, got, c.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" admin "); !ok || r != RoleAdmin {
		t.Fatalf("ParseRole(admin) = %q, %v", r, ok)
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatalf("owner should not parse")
	}
}

func TestUser_Patches(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{Role: RoleUser, ProfileImageURL: "/uploads/old.png"}

	u.SetRole(RoleAdmin, now)
	if u.Role != RoleAdmin || !u.UpdatedAt.Equal(now) {
		t.Fatalf("SetRole did not apply: %+v", u)
	}

	prev := u.SetProfileImage("/uploads/new.png", now.Add(time.Minute))
	if prev != "/uploads/old.png" || u.ProfileImageURL != "/uploads/new.png" {
		t.Fatalf("SetProfileImage did not apply: prev=%q user=%+v", prev, u)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no principal")
	}

	p := Principal{UserID: "42", Username: "alice", Role: RoleUser}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	if !ok || got != p {
		t.Fatalf("round trip failed: %+v %v", got, ok)
	}
	if !got.Owns("42") || got.Owns("43") || (Principal{}).Owns("") {
		t.Fatalf("unexpected ownership result")
	}
}

func TestValidationError_Is(t *testing.T) {
	err := error(NewValidationError("username is required"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidationError should match ErrValidation")
	}
	if err.Error() != "validation failed: username is required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
