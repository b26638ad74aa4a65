package services

import (
	"testing"

	"PortalAuth/models"
	"PortalAuth/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNonAdminWithoutGrants(t *testing.T) {
	grants := repositories.NewMockGrantRepository()
	service := NewPermissionService(grants, []string{"admin@example.com"})

	user := &models.User{ID: "u-1", Email: "user@example.com"}
	permissions, err := service.Evaluate(user)
	require.NoError(t, err)

	assert.True(t, permissions[ModuleProfile])
	assert.False(t, permissions[ModuleAdmin])
	assert.False(t, permissions[ModuleFavor])
	assert.False(t, permissions[ModuleGD])
	assert.False(t, permissions[ModuleDiscover])
}

func TestEvaluateExplicitGrants(t *testing.T) {
	grants := repositories.NewMockGrantRepository()
	require.NoError(t, grants.Grant("u-1", ModuleFavor))
	service := NewPermissionService(grants, nil)

	user := &models.User{ID: "u-1", Email: "user@example.com"}
	permissions, err := service.Evaluate(user)
	require.NoError(t, err)

	assert.True(t, permissions[ModuleFavor])
	assert.False(t, permissions[ModuleGD])
}

func TestEvaluateAdminGetsEverything(t *testing.T) {
	grants := repositories.NewMockGrantRepository()
	service := NewPermissionService(grants, []string{"admin@example.com"})

	user := &models.User{ID: "a-1", Email: "admin@example.com"}
	permissions, err := service.Evaluate(user)
	require.NoError(t, err)

	// Admins hold every catalog module without grant rows.
	for module := range moduleCatalog {
		assert.True(t, permissions[module], "admin should hold %s", module)
	}
}

func TestEvaluateAdminAllowlistIsCaseInsensitive(t *testing.T) {
	service := NewPermissionService(repositories.NewMockGrantRepository(), []string{"Admin@Example.COM"})
	assert.True(t, service.IsAdmin("admin@example.com"))
	assert.False(t, service.IsAdmin("other@example.com"))
}

func TestGrantRowsNeverOpenAdminModule(t *testing.T) {
	grants := repositories.NewMockGrantRepository()
	require.NoError(t, grants.Grant("u-1", ModuleAdmin))
	service := NewPermissionService(grants, nil)

	user := &models.User{ID: "u-1", Email: "user@example.com"}
	permissions, err := service.Evaluate(user)
	require.NoError(t, err)
	assert.False(t, permissions[ModuleAdmin])
}

func TestUnknownModulesAreNeverGrantable(t *testing.T) {
	service := NewPermissionService(repositories.NewMockGrantRepository(), nil)
	assert.False(t, service.GrantableModule("nonexistent"))
	assert.False(t, service.GrantableModule(ModuleAdmin))
	assert.False(t, service.GrantableModule(ModuleProfile))
	assert.True(t, service.GrantableModule(ModuleFavor))

	// A typo'd grant row must not leak into the evaluated map.
	grants := repositories.NewMockGrantRepository()
	require.NoError(t, grants.Grant("u-1", "tyop"))
	service = NewPermissionService(grants, nil)
	permissions, err := service.Evaluate(&models.User{ID: "u-1", Email: "user@example.com"})
	require.NoError(t, err)
	_, present := permissions["tyop"]
	assert.False(t, present)
}
