package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/services"
	"PortalAuth/stores"
	"PortalAuth/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type middlewareFixture struct {
	middleware *AuthMiddleware
	users      *repositories.MockUserRepository
	token      string
	echo       *echo.Echo
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	codec, err := utils.NewHMACCodec("test-secret")
	require.NoError(t, err)

	users := repositories.NewMockUserRepository()
	permissions := services.NewPermissionService(repositories.NewMockGrantRepository(), nil)
	sessions := services.NewSessionService(codec, stores.NewRevocationStore(client), stores.NewExchangeStore(client), permissions, "portalauth", []string{"portal"})

	require.NoError(t, users.Create(&models.User{ID: "u-1", Email: "a@x.com"}))
	user, err := users.FindByID("u-1")
	require.NoError(t, err)
	token, err := sessions.Issue(context.Background(), user)
	require.NoError(t, err)

	return &middlewareFixture{
		middleware: NewAuthMiddleware(sessions, users),
		users:      users,
		token:      token,
		echo:       echo.New(),
	}
}

func (f *middlewareFixture) protectedRequest(t *testing.T, target, bearer string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	c := f.echo.NewContext(req, httptest.NewRecorder())
	handler := f.middleware.RequireAuth()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	assert.NoError(t, f.protectedRequest(t, "/auth/links", f.token))
}

// Protected routes never read tokens out of the URL; only the /auth/me
// post-redirect leg accepts the query parameter, explicitly.
func TestRequireAuthIgnoresQueryParamToken(t *testing.T) {
	f := newMiddlewareFixture(t)

	err := f.protectedRequest(t, "/auth/links?token="+url.QueryEscape(f.token), "")
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuthRejectsBannedUser(t *testing.T) {
	f := newMiddlewareFixture(t)
	user, err := f.users.FindByID("u-1")
	require.NoError(t, err)
	user.Banned = true
	require.NoError(t, f.users.Update(user))

	reqErr := f.protectedRequest(t, "/auth/links", f.token)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, reqErr, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
