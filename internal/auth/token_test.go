package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suportebot/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("segredo", time.Hour)
	user := &domain.User{ID: "u1", Username: "maria", Role: domain.RoleCollaborator}

	token, err := manager.Issue(user)
	require.NoError(t, err)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, domain.RoleCollaborator, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	user := &domain.User{ID: "u1", Username: "maria", Role: domain.RoleSupport}
	token, err := NewTokenManager("segredo", time.Hour).Issue(user)
	require.NoError(t, err)

	_, err = NewTokenManager("outro-segredo", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	user := &domain.User{ID: "u1", Username: "maria", Role: domain.RoleSupport}
	manager := NewTokenManager("segredo", -time.Minute)
	token, err := manager.Issue(user)
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenManager("segredo", time.Hour).Verify("nem.um.jwt")
	assert.Error(t, err)
}

func TestAccessCodeHashing(t *testing.T) {
	hash, err := HashAccessCode("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", hash)

	assert.True(t, CompareAccessCode(hash, "123456"))
	assert.False(t, CompareAccessCode(hash, "654321"))
	assert.False(t, CompareAccessCode("not-a-hash", "123456"))
}
