package repositories

import (
	"sync"
	"time"

	"PortalAuth/models"
)

// In-memory repository implementations used by service tests.

type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]models.User)}
}

func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *MockUserRepository) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *MockUserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *MockUserRepository) TouchLastLogin(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

type MockOAuthAccountRepository struct {
	mu       sync.Mutex
	nextID   uint
	accounts []models.OAuthAccount
}

func NewMockOAuthAccountRepository() *MockOAuthAccountRepository {
	return &MockOAuthAccountRepository{nextID: 1}
}

func (r *MockOAuthAccountRepository) Create(account *models.OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account.ID = r.nextID
	r.nextID++
	account.CreatedAt = time.Now()
	r.accounts = append(r.accounts, *account)
	return nil
}

func (r *MockOAuthAccountRepository) FindByProviderUser(provider, providerUserID string) (*models.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.Provider == provider && acc.ProviderUserID == providerUserID {
			a := acc
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MockOAuthAccountRepository) FindByUserProvider(userID, provider string) (*models.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.UserID == userID && acc.Provider == provider {
			a := acc
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MockOAuthAccountRepository) ListByUser(userID string) ([]models.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OAuthAccount
	for _, acc := range r.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *MockOAuthAccountRepository) CountByUser(userID string) (int64, error) {
	accounts, _ := r.ListByUser(userID)
	return int64(len(accounts)), nil
}

func (r *MockOAuthAccountRepository) Update(account *models.OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, acc := range r.accounts {
		if acc.ID == account.ID {
			r.accounts[i] = *account
			return nil
		}
	}
	return ErrNotFound
}

func (r *MockOAuthAccountRepository) Delete(userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.accounts[:0]
	for _, acc := range r.accounts {
		if !(acc.UserID == userID && acc.Provider == provider) {
			kept = append(kept, acc)
		}
	}
	r.accounts = kept
	return nil
}

func (r *MockOAuthAccountRepository) ReassignOwner(fromUserID, toUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, acc := range r.accounts {
		if acc.UserID == fromUserID {
			r.accounts[i].UserID = toUserID
		}
	}
	return nil
}

func (r *MockOAuthAccountRepository) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.accounts[:0]
	for _, acc := range r.accounts {
		if acc.UserID != userID {
			kept = append(kept, acc)
		}
	}
	r.accounts = kept
	return nil
}

type MockGrantRepository struct {
	mu     sync.Mutex
	grants map[string]map[string]bool
}

func NewMockGrantRepository() *MockGrantRepository {
	return &MockGrantRepository{grants: make(map[string]map[string]bool)}
}

func (r *MockGrantRepository) Grant(userID, module string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grants[userID] == nil {
		r.grants[userID] = make(map[string]bool)
	}
	r.grants[userID][module] = true
	return nil
}

func (r *MockGrantRepository) Revoke(userID, module string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants[userID], module)
	return nil
}

func (r *MockGrantRepository) ListModules(userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for module := range r.grants[userID] {
		out = append(out, module)
	}
	return out, nil
}

type MockTwoFactorRepository struct {
	mu      sync.Mutex
	secrets map[string]models.TempTwoFASecret
}

func NewMockTwoFactorRepository() *MockTwoFactorRepository {
	return &MockTwoFactorRepository{secrets: make(map[string]models.TempTwoFASecret)}
}

func (r *MockTwoFactorRepository) SaveTempSecret(secret *models.TempTwoFASecret) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets[secret.UserEmail] = *secret
	return nil
}

func (r *MockTwoFactorRepository) FindTempSecretByEmail(email string) (*models.TempTwoFASecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	secret, ok := r.secrets[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &secret, nil
}

func (r *MockTwoFactorRepository) DeleteTempSecret(secret *models.TempTwoFASecret) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.secrets, secret.UserEmail)
	return nil
}
