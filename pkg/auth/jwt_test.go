package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_HS256(t *testing.T) {
	gen, err := NewJWTGenerator("secret", "tripia-local", []string{"tripia-api"}, time.Hour)
	require.NoError(t, err)
	token, err := gen.GenerateToken("Jane@Example.com", []string{"admin"})
	require.NoError(t, err)

	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     "secret",
		Issuer:        "tripia-local",
		Audience:      []string{"tripia-api"},
	})
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Groups)
}

func TestJWTValidator_Rejections(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256", SecretKey: "secret"})
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := v.ValidateToken("  ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired", func(t *testing.T) {
		gen, _ := NewJWTGenerator("secret", "", nil, -time.Minute)
		token, _ := gen.GenerateToken("a@b.c", nil)
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		gen, _ := NewJWTGenerator("other", "", nil, time.Hour)
		token, _ := gen.GenerateToken("a@b.c", nil)
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "ES256"})
		assert.Error(t, err)
	})
}

func TestJWTValidator_RS256WithJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_ = json.NewEncoder(w).Encode(jsonWebKeySet{Keys: []jsonWebKey{{
			Kid: "kid-1",
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "RS256",
		Keys:          NewJWKS(srv.URL, srv.Client()),
		Issuer:        "https://cognito-idp.eu-central-1.amazonaws.com/pool",
	})
	require.NoError(t, err)

	sign := func(kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
			Email: "jane@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://cognito-idp.eu-central-1.amazonaws.com/pool",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	claims, err := v.ValidateToken(sign("kid-1"))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)

	_, err = v.ValidateToken(sign("kid-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)

	_, err = v.ValidateToken(sign("kid-unknown"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGroupsClaim(t *testing.T) {
	assert.Nil(t, ParseGroupsClaim(""))
	assert.Equal(t, []string{"admin", "guides"}, ParseGroupsClaim("[admin guides]"))
	assert.Equal(t, []string{"admin", "guides"}, ParseGroupsClaim(`["admin","guides"]`))
	assert.Equal(t, []string{"admin", "guides"}, ParseGroupsClaim("admin,guides"))
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	user := NewUserContext("sub-1", " Jane@Example.com ", []string{"admin"}, "admin")
	got, err := GetUserFromContext(SetUserInContext(context.Background(), user))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.True(t, got.IsAdmin)

	assert.False(t, NewUserContext("sub-2", "a@b.c", []string{"admin"}, "").IsAdmin)
}
