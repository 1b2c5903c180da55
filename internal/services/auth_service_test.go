package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenhq/warden/internal/config"
)

func newAuthTestConfig(t *testing.T, password string) config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return config.Config{
		AdminUser:         "operator",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
	}
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	svc := NewAuthService(newAuthTestConfig(t, "correct horse"))

	token, err := svc.Login("operator", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", subject)
}

func TestAuthService_LoginRejectsWrongPassword(t *testing.T) {
	svc := NewAuthService(newAuthTestConfig(t, "correct horse"))

	_, err := svc.Login("operator", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginRejectsUnknownUser(t *testing.T) {
	svc := NewAuthService(newAuthTestConfig(t, "correct horse"))

	_, err := svc.Login("root", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginRejectsWhenNoHashConfigured(t *testing.T) {
	svc := NewAuthService(config.Config{AdminUser: "operator", JWTSecret: "s"})

	_, err := svc.Login("operator", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenRejectsWrongSecret(t *testing.T) {
	cfg := newAuthTestConfig(t, "pw")
	token, err := NewAuthService(cfg).Login("operator", "pw")
	require.NoError(t, err)

	cfg.JWTSecret = "another-secret"
	_, err = NewAuthService(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newAuthTestConfig(t, "pw"))

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
