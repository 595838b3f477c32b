package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, token string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*ports.AuthResult, error) {
	return s.refreshFn(ctx, token)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func authResult(username string) *ports.AuthResult {
	return &ports.AuthResult{
		Token:     "token123",
		TokenType: "Bearer",
		ExpiresAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		User: &domain.User{
			ID: "u1", Username: username, Email: username + "@example.com",
			Role: domain.RoleUser, Enabled: true, ProfileImageURL: "/uploads/p.png",
		},
	}
}

func jsonRequest(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Response, map[string]any) {
	t.Helper()
	var raw struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    any    `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	data, _ := raw.Data.(map[string]any)
	return Response{Success: raw.Success, Message: raw.Message, Data: raw.Data}, data
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Username != "testuser" || in.Email != "test@example.com" || in.FirstName != "Test" || in.LastName != "User" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return authResult(in.Username), nil
		},
	}
	h := NewAuthHandler(stub, "http://localhost:8080")

	c, rec := jsonRequest(e, http.MethodPost, "/api/auth/register",
		`{"username":"testuser","email":"test@example.com","password":"password123","firstName":"Test","lastName":"User"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	env, data := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "User registered successfully" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if data["token"] != "token123" || data["tokenType"] != "Bearer" {
		t.Fatalf("unexpected data: %+v", data)
	}
	user, _ := data["user"].(map[string]any)
	if user["username"] != "testuser" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if user["profileImageUrl"] != "http://localhost:8080/uploads/p.png" {
		t.Fatalf("expected absolute image url, got %v", user["profileImageUrl"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, "")

	c, _ := jsonRequest(e, http.MethodPost, "/api/auth/register", `{"username":"ab","email":"nope","password":"123"}`)
	err := h.Register(c)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, want := range []string{
		"username must be at least 3 characters",
		"email must be a valid email",
		"password must be at least 6 characters",
		"firstName is required",
	} {
		if !strings.Contains(ve.Detail, want) {
			t.Errorf("detail %q missing %q", ve.Detail, want)
		}
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, "")

	c, _ := jsonRequest(e, http.MethodPost, "/api/auth/register", "not-json")
	if err := h.Register(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	h := NewAuthHandler(stub, "")

	c, _ := jsonRequest(e, http.MethodPost, "/api/auth/register",
		`{"username":"testuser","email":"other@example.com","password":"password123","firstName":"Test","lastName":"User"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (*ports.AuthResult, error) {
			if username != "testuser" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return authResult(username), nil
		},
	}
	h := NewAuthHandler(stub, "")

	c, rec := jsonRequest(e, http.MethodPost, "/api/auth/login", `{"username":"testuser","password":"password123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env, data := decodeEnvelope(t, rec)
	if env.Message != "Login successful" || data["token"] != "token123" {
		t.Fatalf("unexpected response: %+v %+v", env, data)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, "")

	c, rec := jsonRequest(e, http.MethodPost, "/api/auth/login", `{"username":"testuser","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("handler must leave rendering to the error handler")
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, "")

	c, _ := jsonRequest(e, http.MethodPost, "/api/auth/login", `{"username":"testuser"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, token string) (*ports.AuthResult, error) {
			if token != "old-token" {
				return nil, domain.ErrInvalidToken
			}
			res := authResult("testuser")
			res.Token = "new-token"
			return res, nil
		},
	}
	h := NewAuthHandler(stub, "")

	c, rec := jsonRequest(e, http.MethodPost, "/api/auth/refresh", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer old-token")
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	env, data := decodeEnvelope(t, rec)
	if env.Message != "Token refreshed successfully" || data["token"] != "new-token" {
		t.Fatalf("unexpected response: %+v %+v", env, data)
	}

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		c, _ := jsonRequest(e, http.MethodPost, "/api/auth/refresh", "")
		if header != "" {
			c.Request().Header.Set(echo.HeaderAuthorization, header)
		}
		if err := h.Refresh(c); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("header %q: expected ErrInvalidToken, got %v", header, err)
		}
	}
}
