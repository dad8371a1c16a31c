package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/tour_catalog_BackEnd/internal/util"
)

const contextClaimsKey = "auth.claims"

const (
	PermissionContentCreate = "content:create"
	PermissionContentUpdate = "content:update"
	PermissionContentDelete = "content:delete"
)

// RequirePermission admits requests whose bearer token carries perm.
func RequirePermission(jwt *util.JWTManager, perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(contextClaimsKey).(*util.Claims)
			if !ok {
				authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
				if strings.TrimSpace(authHeader) == "" {
					return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
				}
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
				}
				parsed, err := jwt.Parse(strings.TrimSpace(parts[1]))
				if err != nil {
					return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired token"))
				}
				claims = parsed
				c.Set(contextClaimsKey, claims)
			}
			if !claims.HasPermission(perm) {
				return c.JSON(http.StatusForbidden, util.Error("missing permission "+perm))
			}
			return next(c)
		}
	}
}

func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok && claims != nil
}
