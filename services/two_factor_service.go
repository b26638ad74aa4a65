package services

import (
	"errors"

	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/utils"
)

var (
	ErrInvalid2FACode = errors.New("invalid 2FA code")
	ErrNoPending2FA   = errors.New("no pending 2FA setup found")
	ErrInvalidInput   = errors.New("invalid input")
)

// TwoFactorService manages the optional TOTP second factor on password
// accounts: setup stores a pending secret, enable promotes it after the user
// proves possession of the authenticator.
type TwoFactorService struct {
	users         repositories.UserRepository
	twoFactorRepo repositories.TwoFactorRepository
}

func NewTwoFactorService(users repositories.UserRepository, twoFactorRepo repositories.TwoFactorRepository) *TwoFactorService {
	return &TwoFactorService{users: users, twoFactorRepo: twoFactorRepo}
}

// Setup2FA generates a fresh secret and returns it with the otpauth URL.
func (s *TwoFactorService) Setup2FA(email string) (string, string, error) {
	if email == "" {
		return "", "", ErrInvalidInput
	}
	secret, otpURL, err := utils.Generate2FASecret(email, utils.DefaultTwoFactorConfig())
	if err != nil {
		return "", "", err
	}
	tempSecret := &models.TempTwoFASecret{
		UserEmail: email,
		Secret:    secret,
	}
	if err := s.twoFactorRepo.SaveTempSecret(tempSecret); err != nil {
		return "", "", err
	}
	return secret, otpURL, nil
}

// Enable2FA validates the first code against the pending secret and promotes
// it onto the account.
func (s *TwoFactorService) Enable2FA(userID, code string) error {
	if code == "" {
		return ErrInvalidInput
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	tempSecret, err := s.twoFactorRepo.FindTempSecretByEmail(user.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNoPending2FA
		}
		return err
	}
	if !utils.VerifyTwoFactorCode(tempSecret.Secret, code) {
		return ErrInvalid2FACode
	}

	user.TwoFactorSecret = tempSecret.Secret
	user.TwoFactorEnabled = true
	if err := s.users.Update(user); err != nil {
		return err
	}
	return s.twoFactorRepo.DeleteTempSecret(tempSecret)
}

// Disable2FA turns the second factor off after a final code check.
func (s *TwoFactorService) Disable2FA(userID, code string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return nil
	}
	if !utils.VerifyTwoFactorCode(user.TwoFactorSecret, code) {
		return ErrInvalid2FACode
	}
	user.TwoFactorSecret = ""
	user.TwoFactorEnabled = false
	return s.users.Update(user)
}
