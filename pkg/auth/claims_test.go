package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadClaims_RoundTrip(t *testing.T) {
	reader := NewUnverifiedJWTReader()

	claims := Claims{
		UsernameClaim: "alice",
		"sub":         "auth0|123",
		"scope":       "r_minicourse w_minicourse",
		"permissions": []any{"r_category", "w_category"},
		"exp":         float64(1893456000),
	}

	token, err := EncodeUnsigned(claims)
	require.NoError(t, err)

	decoded, err := reader.ReadClaims("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, claims, decoded)
}

func TestReadClaims_Username(t *testing.T) {
	token, err := EncodeUnsigned(Claims{UsernameClaim: "alice"})
	require.NoError(t, err)

	claims, err := NewUnverifiedJWTReader().ReadClaims("Bearer " + token)
	require.NoError(t, err)

	username, ok := claims.Username()
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}

func TestReadClaims_IgnoresHeader(t *testing.T) {
	seg := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	payload := `{"http://claims/username":"alice","sub":"auth0|1"}`

	tests := []struct {
		name  string
		token string
	}{
		{"header without alg", seg(`{"typ":"JWT"}`) + "." + seg(payload) + ".sig"},
		{"unregistered alg", seg(`{"alg":"ES256K"}`) + "." + seg(payload) + ".sig"},
		{"header not json", "garbage." + seg(payload) + "."},
		{"padded payload", seg(`{"alg":"RS256"}`) + "." + base64.URLEncoding.EncodeToString([]byte(payload)) + ".sig"},
	}

	reader := NewUnverifiedJWTReader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := reader.ReadClaims("Bearer " + tt.token)
			require.NoError(t, err)

			username, ok := claims.Username()
			assert.True(t, ok)
			assert.Equal(t, "alice", username)
			assert.Equal(t, "auth0|1", claims["sub"])
		})
	}
}

func TestReadClaims_Malformed(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"a":1}`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))

	tests := []struct {
		name   string
		header string
	}{
		{"two segments", "Bearer " + header + "." + payload},
		{"four segments", "Bearer " + header + "." + payload + ".sig.extra"},
		{"payload not base64", "Bearer " + header + ".!!!." + "sig"},
		{"payload not json", "Bearer " + header + "." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig"},
		{"payload null", "Bearer " + header + "." + base64.RawURLEncoding.EncodeToString([]byte("null")) + ".sig"},
		{"payload array", "Bearer " + header + "." + base64.RawURLEncoding.EncodeToString([]byte("[1]")) + ".sig"},
	}

	reader := NewUnverifiedJWTReader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := reader.ReadClaims(tt.header)
			assert.ErrorIs(t, err, ErrMalformedToken)
			assert.Nil(t, claims)
		})
	}
}

func TestReadClaims_EmptyToken(t *testing.T) {
	_, err := NewUnverifiedJWTReader().ReadClaims("Bearer ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestClaimsUsername_Missing(t *testing.T) {
	_, ok := Claims{"username": "bob"}.Username()
	assert.False(t, ok)

	_, ok = Claims{UsernameClaim: 42}.Username()
	assert.False(t, ok)
}
