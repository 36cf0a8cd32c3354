package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "market_chat/pkg/errors"
)

func TestValidateToken(t *testing.T) {
	valid, err := GenerateToken("u1", "secret", "market-chat", time.Minute)
	require.NoError(t, err)
	expired, err := GenerateToken("u1", "secret", "market-chat", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "valid", token: valid, secret: "secret"},
		{name: "wrong secret", token: valid, secret: "other", wantErr: apperrors.ErrInvalidToken},
		{name: "expired", token: expired, secret: "secret", wantErr: apperrors.ErrTokenExpired},
		{name: "garbage", token: "not-a-token", secret: "secret", wantErr: apperrors.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
			assert.Equal(t, "market-chat", claims.Issuer)
		})
	}
}
