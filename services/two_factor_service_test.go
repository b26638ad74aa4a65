package services

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorSetupEnableDisable(t *testing.T) {
	f := newAuthFixture(t)

	_, user, err := f.auth.Invite(context.Background(), "b@y.com", "B")
	require.NoError(t, err)

	secret, otpURL, err := f.twoFactor.Setup2FA(user.Email)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, otpURL, "otpauth://")

	// Wrong first code keeps 2FA off.
	assert.ErrorIs(t, f.twoFactor.Enable2FA(user.ID, "000000"), ErrInvalid2FACode)
	stored, err := f.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.twoFactor.Enable2FA(user.ID, code))

	stored, err = f.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, stored.TwoFactorEnabled)
	assert.Equal(t, secret, stored.TwoFactorSecret)

	code, err = totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.twoFactor.Disable2FA(user.ID, code))

	stored, err = f.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)
}

func TestEnable2FAWithoutSetup(t *testing.T) {
	f := newAuthFixture(t)

	_, user, err := f.auth.Invite(context.Background(), "b@y.com", "B")
	require.NoError(t, err)

	assert.ErrorIs(t, f.twoFactor.Enable2FA(user.ID, "123456"), ErrNoPending2FA)
}
