package handler

import (
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// callerPrincipal returns the principal bound by the authentication gate,
// or domain.ErrUnauthorized when there is none.
func callerPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
