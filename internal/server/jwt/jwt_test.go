package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	token, err := s.Generate("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Actor)
	assert.Equal(t, "alice", claims.Subject)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).Generate("alice")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	s := NewService("test-secret", -time.Hour)
	// TTL <= 0 заменяется значением по умолчанию, поэтому подделываем
	// просроченный токен напрямую
	s.ttl = -time.Hour

	token, err := s.Generate("alice")
	require.NoError(t, err)

	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	for _, bad := range []string{"", "not.a.token", "a.b"} {
		_, err := s.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
