package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// RequireAuth rejects requests the authentication gate did not authenticate.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := domain.PrincipalFromContext(c.Request().Context()); !ok {
				return domain.ErrUnauthorized
			}
			return next(c)
		}
	}
}

// RequireRole enforces a minimum role. Unauthenticated requests get 401,
// authenticated ones without enough privilege get 403.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := domain.PrincipalFromContext(c.Request().Context())
			if !ok {
				return domain.ErrUnauthorized
			}
			if !p.Role.Allows(role) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
