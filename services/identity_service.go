package services

import (
	"errors"

	"PortalAuth/auth"
	"PortalAuth/models"
	"PortalAuth/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrLastLinkage           = errors.New("cannot unlink the only identity of an account")
	ErrProviderAlreadyLinked = errors.New("this provider is already linked to the account")
	ErrUserNotFound          = errors.New("user not found")
	ErrMergeSameUser         = errors.New("cannot merge an account into itself")
)

// OAuthLoginResult is the outcome of resolving one verified external identity.
type OAuthLoginResult struct {
	User         *models.User
	IsNewUser    bool
	LinkedMethod string
}

// IdentityService decides which local user a verified external identity
// belongs to: prior linkage first, then email match, then a fresh account.
type IdentityService struct {
	users    repositories.UserRepository
	accounts repositories.OAuthAccountRepository
}

func NewIdentityService(users repositories.UserRepository, accounts repositories.OAuthAccountRepository) *IdentityService {
	return &IdentityService{users: users, accounts: accounts}
}

// ResolveOAuth handles one OAuth callback in the normal login flow.
func (s *IdentityService) ResolveOAuth(provider string, profile *auth.Profile, token *auth.Token) (*OAuthLoginResult, error) {
	// 1. Prior linkage wins; no email matching needed.
	account, err := s.accounts.FindByProviderUser(provider, profile.ProviderUserID)
	if err == nil {
		s.refreshLinkage(account, profile, token)
		user, err := s.users.FindByID(account.UserID)
		if err != nil {
			return nil, err
		}
		return &OAuthLoginResult{User: user, LinkedMethod: account.LinkedMethod}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// 2. Match a local user by the provider-reported email.
	user, err := s.users.FindByEmail(profile.Email)
	if err == nil {
		if err := s.attachLinkage(user.ID, provider, profile, token, models.LinkedMethodAuto); err != nil {
			return nil, err
		}
		return &OAuthLoginResult{User: user, LinkedMethod: models.LinkedMethodAuto}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// 3. First contact: create the local account.
	user = &models.User{
		ID:      uuid.NewString(),
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	if err := s.attachLinkage(user.ID, provider, profile, token, models.LinkedMethodAuto); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"provider": provider, "user": user.ID}).Info("Created new user from OAuth login")
	return &OAuthLoginResult{User: user, IsNewUser: true, LinkedMethod: models.LinkedMethodAuto}, nil
}

// LinkAccount attaches a new identity to an already-authenticated user.
// The "create new user" branch of the login flow is never taken here.
func (s *IdentityService) LinkAccount(userID, provider string, profile *auth.Profile, token *auth.Token) error {
	if _, err := s.users.FindByID(userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.accounts.FindByUserProvider(userID, provider); err == nil {
		return ErrProviderAlreadyLinked
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	// The identity may not already belong to someone else either.
	if existing, err := s.accounts.FindByProviderUser(provider, profile.ProviderUserID); err == nil && existing.UserID != userID {
		return ErrProviderAlreadyLinked
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return s.attachLinkage(userID, provider, profile, token, models.LinkedMethodManual)
}

// Unlink removes one identity, refusing to strand the account.
func (s *IdentityService) Unlink(userID, provider string) error {
	if _, err := s.accounts.FindByUserProvider(userID, provider); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return repositories.ErrNotFound
		}
		return err
	}
	count, err := s.accounts.CountByUser(userID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastLinkage
	}
	return s.accounts.Delete(userID, provider)
}

// Merge re-points every linkage of the source user at the target, then
// deletes the source user. Destructive and irreversible; the sequence is
// idempotent, so re-running after a partial failure is safe.
func (s *IdentityService) Merge(sourceUserID, targetUserID string) error {
	if sourceUserID == targetUserID {
		return ErrMergeSameUser
	}
	if _, err := s.users.FindByID(targetUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.users.FindByID(sourceUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Source already gone: a previous merge finished the job.
			return nil
		}
		return err
	}

	if err := s.accounts.ReassignOwner(sourceUserID, targetUserID); err != nil {
		return err
	}
	if err := s.accounts.DeleteByUser(sourceUserID); err != nil {
		return err
	}
	if err := s.users.Delete(sourceUserID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"source": sourceUserID, "target": targetUserID}).Info("Merged accounts")
	return nil
}

// Linkages lists the identities attached to a user.
func (s *IdentityService) Linkages(userID string) ([]models.OAuthAccount, error) {
	return s.accounts.ListByUser(userID)
}

func (s *IdentityService) attachLinkage(userID, provider string, profile *auth.Profile, token *auth.Token, method string) error {
	account := &models.OAuthAccount{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
		Name:           profile.Name,
		Picture:        profile.Picture,
		LinkedMethod:   method,
	}
	if token != nil {
		account.AccessToken = token.AccessToken
		account.RefreshToken = token.RefreshToken
		account.TokenExpiry = token.Expiry
	}
	return s.accounts.Create(account)
}

// refreshLinkage updates the stored provider-token metadata on login.
func (s *IdentityService) refreshLinkage(account *models.OAuthAccount, profile *auth.Profile, token *auth.Token) {
	account.Email = profile.Email
	account.Name = profile.Name
	account.Picture = profile.Picture
	if token != nil {
		account.AccessToken = token.AccessToken
		account.RefreshToken = token.RefreshToken
		account.TokenExpiry = token.Expiry
	}
	if err := s.accounts.Update(account); err != nil {
		logrus.Warn("Failed to refresh linkage metadata: ", err)
	}
}
