package routes

import (
	"PortalAuth/controllers"
	"PortalAuth/middlewares"
	"PortalAuth/services"

	"github.com/labstack/echo/v4"
)

// Controllers groups everything RegisterRoutes needs.
type Controllers struct {
	Auth      *controllers.AuthController
	OAuth     *controllers.OAuthController
	Admin     *controllers.AdminController
	TwoFactor *controllers.TwoFactorController
}

// RegisterRoutes wires the HTTP surface of the gateway.
func RegisterRoutes(e *echo.Echo, c Controllers, am *middlewares.AuthMiddleware) {
	e.Use(middlewares.RecoveryMiddleware())
	e.Use(middlewares.ErrorHandler())

	// Public routes. /auth/me never fails; an invalid token is an ordinary
	// unauthenticated answer.
	e.POST("/auth/login", c.Auth.Login)
	e.GET("/auth/me", c.Auth.Me)
	e.POST("/auth/token/exchange", c.Auth.Exchange)

	e.GET("/oauth/:provider/login", c.OAuth.Login)
	e.GET("/oauth/:provider/callback", c.OAuth.Callback)

	// Routes requiring a valid session.
	authed := e.Group("/auth", am.RequireAuth())
	authed.POST("/logout", c.Auth.Logout)
	authed.POST("/password", c.Auth.ChangePassword)
	authed.GET("/links", c.Auth.Links)
	authed.DELETE("/link/:provider", c.Auth.Unlink)
	authed.POST("/merge", c.Auth.Merge)
	authed.POST("/2fa/setup", c.TwoFactor.Setup2FA)
	authed.POST("/2fa/enable", c.TwoFactor.Enable2FA)
	authed.POST("/2fa/disable", c.TwoFactor.Disable2FA)

	e.GET("/oauth/:provider/link", c.OAuth.Link, am.RequireAuth())

	// Admin console, gated on the admin module.
	admin := e.Group("/admin", am.RequirePermissions(services.ModuleAdmin))
	admin.POST("/invite", c.Admin.Invite)
	admin.POST("/grants", c.Admin.Grant)
	admin.DELETE("/grants", c.Admin.RevokeGrant)
	admin.POST("/users/:id/ban", c.Admin.SetBanned)
}
