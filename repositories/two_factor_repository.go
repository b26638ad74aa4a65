package repositories

import (
	"errors"

	"PortalAuth/models"

	"gorm.io/gorm"
)

// TwoFactorRepository persists pending TOTP secrets between setup and enable.
type TwoFactorRepository interface {
	SaveTempSecret(secret *models.TempTwoFASecret) error
	FindTempSecretByEmail(email string) (*models.TempTwoFASecret, error)
	DeleteTempSecret(secret *models.TempTwoFASecret) error
}

type twoFactorRepositoryImpl struct {
	db *gorm.DB
}

func NewTwoFactorRepository(db *gorm.DB) TwoFactorRepository {
	return &twoFactorRepositoryImpl{db: db}
}

func (r *twoFactorRepositoryImpl) SaveTempSecret(secret *models.TempTwoFASecret) error {
	// Re-running setup replaces the pending secret.
	r.db.Where("user_email = ?", secret.UserEmail).Delete(&models.TempTwoFASecret{})
	return r.db.Create(secret).Error
}

func (r *twoFactorRepositoryImpl) FindTempSecretByEmail(email string) (*models.TempTwoFASecret, error) {
	var secret models.TempTwoFASecret
	err := r.db.Where("user_email = ?", email).First(&secret).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

func (r *twoFactorRepositoryImpl) DeleteTempSecret(secret *models.TempTwoFASecret) error {
	return r.db.Delete(secret).Error
}
