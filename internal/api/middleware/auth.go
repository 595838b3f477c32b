package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/oguzhanozgokce/account-service/internal/api/metrics"
	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

const bearerPrefix = "Bearer "

// UserFinder loads the account a token subject names.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenChecker resolves and validates bearer tokens.
type TokenChecker interface {
	ExtractSubject(token string) (string, bool)
	Validate(token string, user *domain.User) bool
}

// AuthConfig configures the authentication gate.
type AuthConfig struct {
	Tokens TokenChecker
	Users  UserFinder
	// PublicPaths are path prefixes that skip token resolution entirely.
	PublicPaths []string
	Log         zerolog.Logger
}

// Auth binds a domain.Principal to the request context when the request
// carries a valid bearer token for an existing, enabled account.
// It never rejects a request: anything short of a valid token continues
// unauthenticated, and RequireAuth/RequireRole decide access downstream.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	public := make([]string, 0, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			public = append(public, p)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" {
				return next(c)
			}
			if isPublic(c.Request().URL.Path, public) {
				return next(c)
			}

			if p, ok := authenticate(c.Request().Context(), cfg, token); ok {
				c.SetRequest(c.Request().WithContext(domain.WithPrincipal(c.Request().Context(), p)))
			}
			return next(c)
		}
	}
}

// authenticate runs subject resolution, lookup and validation. Panics are
// treated like any other failure.
func authenticate(ctx context.Context, cfg AuthConfig, token string) (p domain.Principal, ok bool) {
	result := metrics.ResultRejected
	defer func() {
		if r := recover(); r != nil {
			cfg.Log.Debug().Str("panic", fmt.Sprint(r)).Msg("authentication gate recovered")
			p, ok, result = domain.Principal{}, false, "error"
		}
		metrics.GateAuthenticationsTotal.WithLabelValues(result).Inc()
	}()

	username, found := cfg.Tokens.ExtractSubject(token)
	if !found || strings.TrimSpace(username) == "" {
		return domain.Principal{}, false
	}

	user, err := cfg.Users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			result = "error"
			cfg.Log.Debug().Err(err).Str("username", username).Msg("authentication gate lookup failed")
		}
		return domain.Principal{}, false
	}
	if user == nil || !user.Enabled || !cfg.Tokens.Validate(token, user) {
		return domain.Principal{}, false
	}

	result = metrics.ResultSuccess
	return domain.NewPrincipal(user), true
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
