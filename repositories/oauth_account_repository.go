package repositories

import (
	"errors"

	"PortalAuth/models"

	"gorm.io/gorm"
)

// OAuthAccountRepository persists provider-to-user linkages.
type OAuthAccountRepository interface {
	Create(account *models.OAuthAccount) error
	FindByProviderUser(provider, providerUserID string) (*models.OAuthAccount, error)
	FindByUserProvider(userID, provider string) (*models.OAuthAccount, error)
	ListByUser(userID string) ([]models.OAuthAccount, error)
	CountByUser(userID string) (int64, error)
	Update(account *models.OAuthAccount) error
	Delete(userID, provider string) error
	ReassignOwner(fromUserID, toUserID string) error
	DeleteByUser(userID string) error
}

type oauthAccountRepositoryImpl struct {
	db *gorm.DB
}

func NewOAuthAccountRepository(db *gorm.DB) OAuthAccountRepository {
	return &oauthAccountRepositoryImpl{db: db}
}

func (r *oauthAccountRepositoryImpl) Create(account *models.OAuthAccount) error {
	return r.db.Create(account).Error
}

func (r *oauthAccountRepositoryImpl) FindByProviderUser(provider, providerUserID string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *oauthAccountRepositoryImpl) FindByUserProvider(userID, provider string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *oauthAccountRepositoryImpl) ListByUser(userID string) ([]models.OAuthAccount, error) {
	var accounts []models.OAuthAccount
	if err := r.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *oauthAccountRepositoryImpl) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OAuthAccount{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *oauthAccountRepositoryImpl) Update(account *models.OAuthAccount) error {
	return r.db.Save(account).Error
}

func (r *oauthAccountRepositoryImpl) Delete(userID, provider string) error {
	return r.db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.OAuthAccount{}).Error
}

// ReassignOwner re-points every linkage of one user at another. Used by
// account merge; running it again after a partial failure is safe because the
// WHERE clause simply matches nothing the second time.
func (r *oauthAccountRepositoryImpl) ReassignOwner(fromUserID, toUserID string) error {
	return r.db.Model(&models.OAuthAccount{}).
		Where("user_id = ?", fromUserID).
		UpdateColumn("user_id", toUserID).
		Error
}

func (r *oauthAccountRepositoryImpl) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.OAuthAccount{}).Error
}
