package handler

import (
	"strings"
	"time"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

type userResponse struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            string    `json:"role"`
	Enabled         bool      `json:"enabled"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type authResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type userPageResponse struct {
	Items []userResponse `json:"items"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

func toUserResponse(u *domain.User, baseURL string) userResponse {
	return userResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role.String(),
		Enabled:         u.Enabled,
		ProfileImageURL: absoluteURL(u.ProfileImageURL, baseURL),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toAuthResponse(r *ports.AuthResult, baseURL string) authResponse {
	return authResponse{
		Token:     r.Token,
		TokenType: r.TokenType,
		ExpiresAt: r.ExpiresAt,
		User:      toUserResponse(r.User, baseURL),
	}
}

func toUserPageResponse(p *ports.UserPage, baseURL string) userPageResponse {
	items := make([]userResponse, 0, len(p.Items))
	for _, u := range p.Items {
		items = append(items, toUserResponse(u, baseURL))
	}
	return userPageResponse{Items: items, Page: p.Page, Size: p.Size, Total: p.Total}
}

// absoluteURL prefixes stored relative image paths with the public base URL.
func absoluteURL(ref, baseURL string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return strings.TrimRight(baseURL, "/") + ref
}
