package repositories

import (
	"errors"
	"time"

	"PortalAuth/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by all repositories when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the persistence operations for local users.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id string) error
	TouchLastLogin(id string, at time.Time) error
}

type userRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepositoryImpl) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepositoryImpl) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.User{}).Error
}

func (r *userRepositoryImpl) TouchLastLogin(id string, at time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).
		Error
}
