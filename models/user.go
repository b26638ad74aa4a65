package models

import "time"

// User is a local portal account. An account is reachable through one or
// more linked identities (OAuth providers or the password provider); the
// identity service guarantees at least one linkage survives every unlink.
type User struct {
	ID                 string     `gorm:"primaryKey;size:64" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	Name               string     `json:"name"`
	Picture            string     `json:"picture"`
	PasswordHash       string     `json:"-"`
	MustChangePassword bool       `json:"must_change_password"`
	Banned             bool       `json:"banned"`
	TwoFactorSecret    string     `json:"-"`
	TwoFactorEnabled   bool       `json:"two_factor_enabled"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	OAuthAccounts []OAuthAccount `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
