package middlewares

import (
	"net/http"
	"strings"

	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/services"
	"PortalAuth/utils"

	"github.com/labstack/echo/v4"
)

// Context keys set for downstream handlers.
const (
	ContextUserKey   = "user"
	ContextClaimsKey = "claims"
)

type AuthConfig struct {
	RequireToken      bool
	RequirePermission []string
}

// AuthMiddleware resolves "who is this request" for every protected route.
// Authentication failures are collapsed to a bare 401 regardless of cause.
type AuthMiddleware struct {
	sessions *services.SessionService
	userRepo repositories.UserRepository
}

func NewAuthMiddleware(sessions *services.SessionService, userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, userRepo: userRepo}
}

func (am *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return am.WithConfig(AuthConfig{RequireToken: true})
}

func (am *AuthMiddleware) RequirePermissions(modules ...string) echo.MiddlewareFunc {
	return am.WithConfig(AuthConfig{RequireToken: true, RequirePermission: modules})
}

func (am *AuthMiddleware) WithConfig(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.RequireToken {
				claims := am.sessions.Verify(c.Request().Context(), ExtractToken(c))
				if claims == nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}

				user, err := am.userRepo.FindByID(claims.UserID)
				if err != nil || user.Banned {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}

				c.Set(ContextUserKey, user)
				c.Set(ContextClaimsKey, claims)

				// Permission failures are distinguishable from missing
				// authentication so the portal can render "forbidden"
				// instead of "please log in".
				for _, module := range config.RequirePermission {
					if !claims.Permissions[module] {
						return echo.NewHTTPError(http.StatusForbidden, "permission denied: "+module)
					}
				}
			}

			return next(c)
		}
	}
}

// ExtractToken pulls the bearer token from the Authorization header. Tokens
// never ride in the URL on protected routes; URLs end up in access logs and
// browser history. The one endpoint on the post-OAuth-redirect leg that
// accepts query-parameter transport opts into it itself.
func ExtractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(ContextUserKey).(*models.User)
	return user, ok
}

// CurrentClaims returns the verified token claims set by RequireAuth.
func CurrentClaims(c echo.Context) (*utils.SessionClaims, bool) {
	claims, ok := c.Get(ContextClaimsKey).(*utils.SessionClaims)
	return claims, ok
}
