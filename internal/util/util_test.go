package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "secret")
	require.NoError(t, err)

	userID, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	_, err = ParseJWT(token, "wrong-secret")
	assert.Error(t, err)

	_, err = ParseJWT("not.a.token", "secret")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(r))

	r.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, ExtractToken(r))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("longenough")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough", hash)

	assert.True(t, CheckPassword("longenough", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
