package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	InitJWT([]byte("secret"))
	want := model.Principal{UserID: "u1", Role: model.RoleFaculty, Email: "f@example.com", Name: "Grace"}

	tok, err := GenerateToken(want, time.Hour)
	require.NoError(t, err)

	decoded, err := TokenAuth.Decode(tok)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	got, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPrincipalFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]any
		wantErr bool
	}{
		{"student without email", map[string]any{"user_id": "u1", "role": "student"}, false},
		{"missing user", map[string]any{"role": "student"}, true},
		{"numeric user", map[string]any{"user_id": 7, "role": "student"}, true},
		{"unknown role", map[string]any{"user_id": "u1", "role": "superuser"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PrincipalFromClaims(tt.claims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, p.Email)
		})
	}
}
