package models

import "time"

// TempTwoFASecret holds a generated TOTP secret between setup and the user
// confirming the first code. Promoted onto the User row on enable.
type TempTwoFASecret struct {
	ID        uint   `gorm:"primaryKey"`
	UserEmail string `gorm:"uniqueIndex"`
	Secret    string
	CreatedAt time.Time
}
