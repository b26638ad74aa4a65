package models

import "time"

// Linkage method tags. "auto" linkages are created by the normal login flow
// (email match or first login); "manual" linkages are created when an
// already-authenticated user explicitly links another provider.
const (
	LinkedMethodAuto   = "auto"
	LinkedMethodManual = "manual"
)

// ProviderPassword is the pseudo-provider used for invite-issued
// email/password credentials.
const ProviderPassword = "password"

// OAuthAccount links one external identity to a local user.
// (provider, provider_user_id) is unique across the table.
type OAuthAccount struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"index;size:64;not null" json:"user_id"`
	Provider       string     `gorm:"index:idx_provider_uid,unique;size:50;not null" json:"provider"`
	ProviderUserID string     `gorm:"index:idx_provider_uid,unique;size:191;not null" json:"provider_user_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Picture        string     `json:"picture"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiry    *time.Time `json:"token_expiry,omitempty"`
	LinkedMethod   string     `gorm:"size:10;not null" json:"linked_method"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
