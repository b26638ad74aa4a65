package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PortalAuth/auth"
	"PortalAuth/middlewares"
	"PortalAuth/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 10 * time.Minute
	providerTimeout   = 10 * time.Second
)

type OAuthController struct {
	providers   map[string]auth.Provider
	authService *services.AuthService
	identity    *services.IdentityService
	sessions    *services.SessionService
	permissions *services.PermissionService
	states      *auth.StateCodec
	// Hostnames a post-login redirect may point at.
	redirectAllowlist []string
}

func NewOAuthController(
	providers []auth.Provider,
	authService *services.AuthService,
	identity *services.IdentityService,
	sessions *services.SessionService,
	permissions *services.PermissionService,
	states *auth.StateCodec,
	redirectAllowlist []string,
) *OAuthController {
	byName := make(map[string]auth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthController{
		providers:         byName,
		authService:       authService,
		identity:          identity,
		sessions:          sessions,
		permissions:       permissions,
		states:            states,
		redirectAllowlist: redirectAllowlist,
	}
}

// Login starts the OAuth dance. The full signed state value goes into a
// short-lived cookie as well as to the provider; the callback compares them
// byte-for-byte and verifies the signature before acting on the payload.
func (oc *OAuthController) Login(c echo.Context) error {
	provider, err := oc.provider(c)
	if err != nil {
		return err
	}

	payload := &auth.StatePayload{}
	if redirect := c.QueryParam("redirect"); redirect != "" {
		validated, err := auth.ValidateRedirect(redirect, oc.redirectAllowlist)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "redirect target is not allowed")
		}
		payload.Redirect = validated
	}

	state, err := oc.states.Mint(payload)
	if err != nil {
		return err
	}
	oc.setStateCookie(c, state)
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Link starts the manual-link flow for an already-authenticated user: the
// state carries the user id the new identity must attach to, under the
// state signature.
func (oc *OAuthController) Link(c echo.Context) error {
	provider, err := oc.provider(c)
	if err != nil {
		return err
	}
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	state, err := oc.states.Mint(&auth.StatePayload{LinkUserID: user.ID})
	if err != nil {
		return err
	}
	oc.setStateCookie(c, state)
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback finishes the dance for both the login and the manual-link flows.
func (oc *OAuthController) Callback(c echo.Context) error {
	provider, err := oc.provider(c)
	if err != nil {
		return err
	}

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "authorization code not provided")
	}

	// The cookie must match the entire minted state byte-for-byte, and Parse
	// re-verifies the payload signature with the server key. A caller who
	// fabricates a link_user_id payload can set their own cookie, but cannot
	// produce a signature this server will accept.
	state := c.QueryParam("state")
	cookie, err := c.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != state {
		return echo.NewHTTPError(http.StatusUnauthorized, "state mismatch")
	}
	payload, err := oc.states.Parse(state)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid state")
	}
	oc.clearStateCookie(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), providerTimeout)
	defer cancel()

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		logrus.Warnf("OAuth code exchange with %s failed: %v", provider.Name(), err)
		return echo.NewHTTPError(http.StatusBadGateway, "provider code exchange failed")
	}
	profile, err := provider.FetchProfile(ctx, token)
	if err != nil {
		logrus.Warnf("Profile fetch from %s failed: %v", provider.Name(), err)
		return echo.NewHTTPError(http.StatusBadGateway, "provider profile fetch failed")
	}

	// Manual link: attach to the state-embedded user, never create accounts.
	if payload.LinkUserID != "" {
		err := oc.identity.LinkAccount(payload.LinkUserID, provider.Name(), profile, token)
		switch {
		case errors.Is(err, services.ErrProviderAlreadyLinked):
			return echo.NewHTTPError(http.StatusConflict, "this provider is already linked")
		case errors.Is(err, services.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case err != nil:
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"linked": true, "provider": provider.Name()})
	}

	result, err := oc.authService.CompleteOAuthLogin(c.Request().Context(), provider.Name(), profile, token)
	if errors.Is(err, services.ErrUserBanned) {
		return echo.NewHTTPError(http.StatusForbidden, "account is banned")
	}
	if err != nil {
		return err
	}

	// Cross-domain handoff: the full token never appears in a URL, only a
	// 30-second single-use key does.
	if payload.Redirect != "" {
		validated, err := auth.ValidateRedirect(payload.Redirect, oc.redirectAllowlist)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "redirect target is not allowed")
		}
		key, err := oc.sessions.IssueExchangeKey(c.Request().Context(), result.Token)
		if err != nil {
			return err
		}
		return c.Redirect(http.StatusFound, appendQuery(validated, "access_token_key", key))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":                result.Token,
		"user":                 newUserView(result.User, oc.permissions.IsAdmin(result.User.Email)),
		"must_change_password": result.MustChangePassword,
		"is_new_user":          result.IsNewUser,
	})
}

func (oc *OAuthController) provider(c echo.Context) (auth.Provider, error) {
	name := c.Param("provider")
	provider, ok := oc.providers[name]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}
	return provider, nil
}

func (oc *OAuthController) setStateCookie(c echo.Context, value string) {
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Request().TLS != nil,
	})
}

func (oc *OAuthController) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func appendQuery(rawURL, key, value string) string {
	separator := "?"
	if strings.Contains(rawURL, "?") {
		separator = "&"
	}
	return rawURL + separator + key + "=" + url.QueryEscape(value)
}
