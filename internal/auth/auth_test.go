package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_Defaults(t *testing.T) {
	service := NewService("", "secret", "", 0)
	assert.Equal(t, "rider-cli", service.clientID)
	assert.Equal(t, 15*time.Minute, service.tokenExp)
}

func TestService_Token_Static(t *testing.T) {
	service := NewService("static-token", "secret", "web", time.Hour)

	token, err := service.Token()
	assert.NoError(t, err)
	assert.Equal(t, "static-token", token)
}

func TestService_Token_Anonymous(t *testing.T) {
	service := NewService("", "", "web", time.Hour)

	token, err := service.Token()
	assert.NoError(t, err)
	assert.Empty(t, token)
}

func TestService_Token_SignedAndCached(t *testing.T) {
	service := NewService("", "secret", "web", 10*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	first, err := service.Token()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	now = now.Add(5 * time.Minute)
	second, err := service.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second, "token should be reused before it nears expiry")

	now = now.Add(5 * time.Minute)
	third, err := service.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, third, "token should be refreshed near expiry")
}

func TestService_ValidateToken(t *testing.T) {
	service := NewService("", "secret", "web", time.Hour)

	token, err := service.GenerateToken(time.Now())
	require.NoError(t, err)

	claims, err := service.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "web", claims.ClientID)
	assert.Greater(t, claims.Exp, time.Now().Unix())

	_, err = service.ValidateToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService("", "another-secret", "web", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := NewService("", "secret", "web", 2*time.Minute)

	token, err := service.GenerateToken(time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_NoSecret(t *testing.T) {
	service := NewService("", "", "web", time.Hour)

	_, err := service.GenerateToken(time.Now())
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = service.ValidateToken("whatever")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   bool
	}{
		{"valid header", "Bearer abc.def", "abc.def", false},
		{"empty header", "", "", true},
		{"wrong scheme", "Token abc", "", true},
		{"missing token", "Bearer ", "", true},
		{"extra parts", "Bearer a b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractTokenFromHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}
