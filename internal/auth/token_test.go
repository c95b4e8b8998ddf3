package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/config"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens(&config.AuthEnv{JWTSecret: "test-secret", TokenTTL: time.Hour})

	signed, expiresAt, err := tokens.Issue("user-1", "dev@example.com")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)
}

func TestTokensRejectsExpired(t *testing.T) {
	tokens := NewTokens(&config.AuthEnv{JWTSecret: "test-secret", TokenTTL: -time.Minute})

	signed, _, err := tokens.Issue("user-1", "dev@example.com")
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.Error(t, err)
}

func TestTokensRejectsWrongSecret(t *testing.T) {
	issuer := NewTokens(&config.AuthEnv{JWTSecret: "secret-a", TokenTTL: time.Hour})
	verifier := NewTokens(&config.AuthEnv{JWTSecret: "secret-b", TokenTTL: time.Hour})

	signed, _, err := issuer.Issue("user-1", "dev@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestTokensRejectsGarbage(t *testing.T) {
	tokens := NewTokens(&config.AuthEnv{JWTSecret: "test-secret", TokenTTL: time.Hour})
	_, err := tokens.Verify("not-a-token")
	assert.Error(t, err)
}
