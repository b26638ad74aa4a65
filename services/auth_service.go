package services

import (
	"context"
	"errors"
	"time"

	"PortalAuth/auth"
	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials deliberately covers unknown email, missing
	// password hash and wrong password alike.
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserBanned           = errors.New("account is banned")
	ErrTwoFactorRequired    = errors.New("two-factor code required")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrPasswordMismatch     = errors.New("current password does not match")
)

// LoginResult is what every successful login hands back to the caller.
type LoginResult struct {
	Token              string       `json:"token"`
	User               *models.User `json:"user"`
	MustChangePassword bool         `json:"must_change_password"`
	IsNewUser          bool         `json:"is_new_user,omitempty"`
}

// AuthService owns the credential flows: password login, OAuth login
// completion, admin invites and password changes.
type AuthService struct {
	users    repositories.UserRepository
	identity *IdentityService
	sessions *SessionService
}

func NewAuthService(users repositories.UserRepository, identity *IdentityService, sessions *SessionService) *AuthService {
	return &AuthService{users: users, identity: identity, sessions: sessions}
}

// Login authenticates an invite-issued email/password account. When the
// account has TOTP enabled a valid code must accompany the password.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		loginFailuresTotal.Inc()
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" || !utils.ComparePassword(user.PasswordHash, password) {
		loginFailuresTotal.Inc()
		return nil, ErrInvalidCredentials
	}
	if user.Banned {
		loginFailuresTotal.Inc()
		return nil, ErrUserBanned
	}
	if user.TwoFactorEnabled {
		if totpCode == "" {
			return nil, ErrTwoFactorRequired
		}
		if !utils.VerifyTwoFactorCode(user.TwoFactorSecret, totpCode) {
			loginFailuresTotal.Inc()
			return nil, ErrInvalidTwoFactorCode
		}
	}

	return s.finishLogin(ctx, user, models.ProviderPassword, false)
}

// CompleteOAuthLogin turns a verified provider identity into a session.
func (s *AuthService) CompleteOAuthLogin(ctx context.Context, provider string, profile *auth.Profile, token *auth.Token) (*LoginResult, error) {
	result, err := s.identity.ResolveOAuth(provider, profile, token)
	if err != nil {
		return nil, err
	}
	if result.User.Banned {
		loginFailuresTotal.Inc()
		return nil, ErrUserBanned
	}
	return s.finishLogin(ctx, result.User, provider, result.IsNewUser)
}

// Invite creates a password account on behalf of an admin and returns the
// generated password for out-of-band delivery. The first login must change it.
func (s *AuthService) Invite(ctx context.Context, email, name string) (string, *models.User, error) {
	if _, err := s.users.FindByEmail(email); err == nil {
		return "", nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", nil, err
	}

	password, err := utils.GenerateRandomPassword()
	if err != nil {
		return "", nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{
		ID:                 uuid.NewString(),
		Email:              email,
		Name:               name,
		PasswordHash:       hash,
		MustChangePassword: true,
	}
	if err := s.users.Create(user); err != nil {
		return "", nil, err
	}
	profile := &auth.Profile{ProviderUserID: email, Email: email, Name: name}
	if err := s.identity.attachLinkage(user.ID, models.ProviderPassword, profile, nil, models.LinkedMethodManual); err != nil {
		return "", nil, err
	}

	logrus.WithField("user", user.ID).Info("Invited new password account")
	return password, user, nil
}

// ChangePassword sets a new password and clears the must-change flag. The
// current password is required unless the account is in the forced-change
// state (first login after an invite).
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if err := utils.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	if !user.MustChangePassword {
		if !utils.ComparePassword(user.PasswordHash, currentPassword) {
			return ErrPasswordMismatch
		}
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	return s.users.Update(user)
}

// SetBanned flips the ban flag and, when banning, revokes open sessions.
func (s *AuthService) SetBanned(ctx context.Context, userID string, banned bool) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	user.Banned = banned
	if err := s.users.Update(user); err != nil {
		return err
	}
	if banned {
		return s.sessions.Logout(ctx, userID)
	}
	return nil
}

func (s *AuthService) finishLogin(ctx context.Context, user *models.User, provider string, isNew bool) (*LoginResult, error) {
	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.users.TouchLastLogin(user.ID, now); err != nil {
		logrus.Warn("Failed to record last login: ", err)
	}
	user.LastLoginAt = &now

	loginsTotal.WithLabelValues(provider).Inc()
	return &LoginResult{
		Token:              token,
		User:               user,
		MustChangePassword: user.MustChangePassword,
		IsNewUser:          isNew,
	}, nil
}
