package controllers

import (
	"errors"
	"net/http"

	"PortalAuth/repositories"
	"PortalAuth/services"

	"github.com/labstack/echo/v4"
)

// AdminController exposes the invite/grant/ban operations. All routes are
// gated on the "admin" module by the auth middleware.
type AdminController struct {
	authService *services.AuthService
	permissions *services.PermissionService
	grants      repositories.GrantRepository
}

func NewAdminController(
	authService *services.AuthService,
	permissions *services.PermissionService,
	grants repositories.GrantRepository,
) *AdminController {
	return &AdminController{authService: authService, permissions: permissions, grants: grants}
}

// Invite creates a password account with a generated password. The password
// is returned once, for out-of-band delivery; the first login must change it.
func (ac *AdminController) Invite(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	password, user, err := ac.authService.Invite(c.Request().Context(), req.Email, req.Name)
	if errors.Is(err, services.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusConflict, "email is already registered")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":     newUserView(user, ac.permissions.IsAdmin(user.Email)),
		"password": password,
	})
}

// Grant adds an explicit module grant. Unknown or non-grantable module ids
// are rejected outright.
func (ac *AdminController) Grant(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id"`
		Module string `json:"module"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.Module == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if !ac.permissions.GrantableModule(req.Module) {
		return echo.NewHTTPError(http.StatusBadRequest, "module is not grantable")
	}
	if err := ac.grants.Grant(req.UserID, req.Module); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "granted"})
}

// RevokeGrant removes an explicit module grant.
func (ac *AdminController) RevokeGrant(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id"`
		Module string `json:"module"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.Module == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if err := ac.grants.Revoke(req.UserID, req.Module); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

// SetBanned bans or unbans an account. Banning also revokes open sessions.
func (ac *AdminController) SetBanned(c echo.Context) error {
	var req struct {
		Banned bool `json:"banned"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	userID := c.Param("id")

	err := ac.authService.SetBanned(c.Request().Context(), userID, req.Banned)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}
