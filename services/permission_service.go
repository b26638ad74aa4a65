package services

import (
	"strings"

	"PortalAuth/models"
	"PortalAuth/repositories"
)

// PermissionSchemaVersion is stamped into every token so consumers can detect
// stale permission snapshots after the catalog changes shape.
const PermissionSchemaVersion = 2

// Portal module ids.
const (
	ModuleProfile  = "profile"
	ModuleAdmin    = "admin"
	ModuleFavor    = "favor"
	ModuleGD       = "gd"
	ModuleDiscover = "discover"
)

type moduleKind int

const (
	moduleUniversal moduleKind = iota
	moduleAdminGated
	moduleGrantGated
)

// moduleCatalog is the closed set of evaluable modules. Ids outside the
// catalog are never grantable.
var moduleCatalog = map[string]moduleKind{
	ModuleProfile:  moduleUniversal,
	ModuleAdmin:    moduleAdminGated,
	ModuleFavor:    moduleGrantGated,
	ModuleGD:       moduleGrantGated,
	ModuleDiscover: moduleGrantGated,
}

// PermissionService computes the boolean permission set for a user. The admin
// allowlist is injected at construction, never compiled in.
type PermissionService struct {
	grants      repositories.GrantRepository
	adminEmails map[string]struct{}
}

func NewPermissionService(grants repositories.GrantRepository, adminEmails []string) *PermissionService {
	allowlist := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		allowlist[strings.ToLower(email)] = struct{}{}
	}
	return &PermissionService{grants: grants, adminEmails: allowlist}
}

func (s *PermissionService) IsAdmin(email string) bool {
	_, ok := s.adminEmails[strings.ToLower(email)]
	return ok
}

// KnownModule reports whether a module id is part of the catalog.
func (s *PermissionService) KnownModule(module string) bool {
	_, ok := moduleCatalog[module]
	return ok
}

// GrantableModule reports whether explicit grant rows make sense for the id.
func (s *PermissionService) GrantableModule(module string) bool {
	return moduleCatalog[module] == moduleGrantGated && s.KnownModule(module)
}

// Evaluate returns the full permission map for the user. Admins implicitly
// hold every grant-gated module; explicit grant rows never open the admin
// module.
func (s *PermissionService) Evaluate(user *models.User) (map[string]bool, error) {
	isAdmin := s.IsAdmin(user.Email)

	granted := make(map[string]bool)
	if !isAdmin {
		modules, err := s.grants.ListModules(user.ID)
		if err != nil {
			return nil, err
		}
		for _, module := range modules {
			granted[module] = true
		}
	}

	permissions := make(map[string]bool, len(moduleCatalog))
	for module, kind := range moduleCatalog {
		switch kind {
		case moduleUniversal:
			permissions[module] = true
		case moduleAdminGated:
			permissions[module] = isAdmin
		case moduleGrantGated:
			permissions[module] = isAdmin || granted[module]
		}
	}
	return permissions, nil
}
