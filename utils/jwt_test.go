package utils

import (
	"testing"
	"time"

	"salesagent/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateAdminToken(time.Hour)
	require.NoError(t, err)
	assert.True(t, IsAdminToken(token))

	expired, err := GenerateAdminToken(-time.Minute)
	require.NoError(t, err)
	assert.False(t, IsAdminToken(expired))

	assert.False(t, IsAdminToken("garbage"))
}

func TestTokenInvalidUnderDifferentSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "secret-one"
	token, err := GenerateAdminToken(time.Hour)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "secret-two"
	assert.False(t, IsAdminToken(token))
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestCheckPassphrasePlainAndBcrypt(t *testing.T) {
	assert.True(t, CheckPassphrase("admin123", "admin123"))
	assert.False(t, CheckPassphrase("admin123", "wrong"))
	assert.False(t, CheckPassphrase("", ""))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassphrase(string(hash), "s3cret"))
	assert.False(t, CheckPassphrase(string(hash), "other"))
}
