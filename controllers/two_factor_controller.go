package controllers

import (
	"errors"
	"net/http"

	"PortalAuth/middlewares"
	"PortalAuth/services"

	"github.com/labstack/echo/v4"
)

type TwoFactorController struct {
	twoFactor *services.TwoFactorService
}

func NewTwoFactorController(twoFactor *services.TwoFactorService) *TwoFactorController {
	return &TwoFactorController{twoFactor: twoFactor}
}

// Setup2FA generates a pending TOTP secret and returns the provisioning URL.
func (tc *TwoFactorController) Setup2FA(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	secret, otpURL, err := tc.twoFactor.Setup2FA(user.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"secret":      secret,
		"otpauth_url": otpURL,
		"message":     "scan the provisioning URL with your authenticator app",
	})
}

// Enable2FA confirms the first code and turns the second factor on.
func (tc *TwoFactorController) Enable2FA(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "2FA code required")
	}

	err := tc.twoFactor.Enable2FA(user.ID, req.Code)
	switch {
	case errors.Is(err, services.ErrNoPending2FA):
		return echo.NewHTTPError(http.StatusBadRequest, "no pending 2FA setup found")
	case errors.Is(err, services.ErrInvalid2FACode):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid 2FA code")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "2FA enabled"})
}

// Disable2FA turns the second factor off after a final code check.
func (tc *TwoFactorController) Disable2FA(c echo.Context) error {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "2FA code required")
	}

	if err := tc.twoFactor.Disable2FA(user.ID, req.Code); err != nil {
		if errors.Is(err, services.ErrInvalid2FACode) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 2FA code")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "2FA disabled"})
}
