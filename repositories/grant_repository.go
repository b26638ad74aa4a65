package repositories

import (
	"PortalAuth/models"

	"gorm.io/gorm"
)

// GrantRepository persists explicit per-user module grants.
type GrantRepository interface {
	Grant(userID, module string) error
	Revoke(userID, module string) error
	ListModules(userID string) ([]string, error)
}

type grantRepositoryImpl struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) GrantRepository {
	return &grantRepositoryImpl{db: db}
}

func (r *grantRepositoryImpl) Grant(userID, module string) error {
	grant := models.ModuleGrant{UserID: userID, Module: module}
	return r.db.Where("user_id = ? AND module = ?", userID, module).
		FirstOrCreate(&grant).Error
}

func (r *grantRepositoryImpl) Revoke(userID, module string) error {
	return r.db.Where("user_id = ? AND module = ?", userID, module).
		Delete(&models.ModuleGrant{}).Error
}

func (r *grantRepositoryImpl) ListModules(userID string) ([]string, error) {
	var modules []string
	err := r.db.Model(&models.ModuleGrant{}).
		Where("user_id = ?", userID).
		Pluck("module", &modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}
