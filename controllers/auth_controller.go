package controllers

import (
	"errors"
	"net/http"

	"PortalAuth/middlewares"
	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/services"
	"PortalAuth/utils"

	"github.com/labstack/echo/v4"
)

// userView is the identity shape handed to the portal UI.
type userView struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Picture            string `json:"picture"`
	IsAdmin            bool   `json:"is_admin"`
	MustChangePassword bool   `json:"must_change_password"`
}

func newUserView(user *models.User, isAdmin bool) *userView {
	return &userView{
		ID:                 user.ID,
		Email:              user.Email,
		Name:               user.Name,
		Picture:            user.Picture,
		IsAdmin:            isAdmin,
		MustChangePassword: user.MustChangePassword,
	}
}

type AuthController struct {
	authService *services.AuthService
	identity    *services.IdentityService
	sessions    *services.SessionService
	permissions *services.PermissionService
	userRepo    repositories.UserRepository
}

func NewAuthController(
	authService *services.AuthService,
	identity *services.IdentityService,
	sessions *services.SessionService,
	permissions *services.PermissionService,
	userRepo repositories.UserRepository,
) *AuthController {
	return &AuthController{
		authService: authService,
		identity:    identity,
		sessions:    sessions,
		permissions: permissions,
		userRepo:    userRepo,
	}
}

// Login handles email/password authentication.
func (ac *AuthController) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	result, err := ac.authService.Login(c.Request().Context(), req.Email, req.Password, req.Code)
	switch {
	case errors.Is(err, services.ErrTwoFactorRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":         "two-factor code required",
			"totp_required": true,
		})
	case errors.Is(err, services.ErrUserBanned):
		return echo.NewHTTPError(http.StatusForbidden, "account is banned")
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidTwoFactorCode):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":                result.Token,
		"user":                 newUserView(result.User, ac.permissions.IsAdmin(result.User.Email)),
		"must_change_password": result.MustChangePassword,
	})
}

// Logout records a revocation mark; every token issued before now turns invalid.
func (ac *AuthController) Logout(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := ac.sessions.Logout(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me answers "who is this request" without ever failing: a missing or invalid
// token is an ordinary unauthenticated response. This is the only endpoint
// that accepts the "token" query parameter, for the page load right after the
// OAuth redirect where no Authorization header exists yet.
func (ac *AuthController) Me(c echo.Context) error {
	token := middlewares.ExtractToken(c)
	if token == "" {
		token = c.QueryParam("token")
	}
	claims := ac.sessions.Verify(c.Request().Context(), token)
	if claims == nil {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false, "user": nil})
	}
	user, err := ac.userRepo.FindByID(claims.UserID)
	if err != nil || user.Banned {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false, "user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"user":          newUserView(user, ac.permissions.IsAdmin(user.Email)),
	})
}

// ChangePassword sets a new password for the authenticated user.
func (ac *AuthController) ChangePassword(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	err := ac.authService.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, utils.ErrWeakPassword):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPasswordMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "current password does not match")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// Exchange redeems a one-time cross-domain key for the full token.
func (ac *AuthController) Exchange(c echo.Context) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.Bind(&req); err != nil || req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	token, err := ac.sessions.RedeemExchangeKey(c.Request().Context(), req.Key)
	if err != nil {
		return err
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusNotFound, "invalid or expired key")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Links lists the identities attached to the authenticated user.
func (ac *AuthController) Links(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	accounts, err := ac.identity.Linkages(user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"links": accounts})
}

// Unlink removes one identity, unless it is the last one.
func (ac *AuthController) Unlink(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	provider := c.Param("provider")

	err := ac.identity.Unlink(user.ID, provider)
	switch {
	case errors.Is(err, services.ErrLastLinkage):
		return echo.NewHTTPError(http.StatusConflict, "cannot unlink the only identity of an account")
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "no such linkage")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "unlinked"})
}

// Merge folds another account into the authenticated one. Destructive;
// explicit confirmation is required.
func (ac *AuthController) Merge(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req struct {
		SourceUserID string `json:"source_user_id"`
		Confirm      bool   `json:"confirm"`
	}
	if err := c.Bind(&req); err != nil || req.SourceUserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	if !req.Confirm {
		return echo.NewHTTPError(http.StatusBadRequest, "merge is irreversible; confirmation required")
	}

	err := ac.identity.Merge(req.SourceUserID, user.ID)
	switch {
	case errors.Is(err, services.ErrMergeSameUser):
		return echo.NewHTTPError(http.StatusBadRequest, "cannot merge an account into itself")
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "accounts merged"})
}
