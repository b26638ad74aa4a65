package models

import "time"

// ModuleGrant records an explicit per-user grant of one portal module.
// Universal and admin-gated modules never have grant rows; only grant-gated
// modules are represented here.
type ModuleGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_module,unique;size:64;not null" json:"user_id"`
	Module    string    `gorm:"index:idx_user_module,unique;size:50;not null" json:"module"`
	CreatedAt time.Time `json:"created_at"`
}
