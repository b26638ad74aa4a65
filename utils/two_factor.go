package utils

import (
	"errors"

	"github.com/pquerna/otp/totp"
)

// TwoFactorConfig controls TOTP secret generation.
type TwoFactorConfig struct {
	Issuer string
}

func DefaultTwoFactorConfig() TwoFactorConfig {
	return TwoFactorConfig{Issuer: "PortalAuth"}
}

// Generate2FASecret creates a new TOTP secret for the account and returns the
// secret plus the otpauth:// provisioning URL for authenticator apps.
func Generate2FASecret(accountEmail string, config TwoFactorConfig) (string, string, error) {
	if accountEmail == "" {
		return "", "", errors.New("account email is required")
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Issuer,
		AccountName: accountEmail,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyTwoFactorCode checks a TOTP code against the stored secret.
func VerifyTwoFactorCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
