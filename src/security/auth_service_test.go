package security

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/backend/src/config"
)

func TestMain(m *testing.M) {
	config.Cfg = &config.AppConfig{
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 168 * time.Hour,
	}
	os.Exit(m.Run())
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123")

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewAuthService("test-secret-that-is-long-enough-123")
	verifier := NewAuthService("a-completely-different-secret-456")

	token, err := issuer.GenerateToken("42")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	orig := config.Cfg.AccessTokenExpiry
	config.Cfg.AccessTokenExpiry = -time.Minute
	defer func() { config.Cfg.AccessTokenExpiry = orig }()

	svc := NewAuthService("test-secret-that-is-long-enough-123")
	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123")
	_, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123")

	first, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
