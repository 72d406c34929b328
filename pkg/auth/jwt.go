package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims are the Cognito ID token claims the backend relies on.
type Claims struct {
	Email    string   `json:"email"`
	Groups   []string `json:"cognito:groups,omitempty"`
	TokenUse string   `json:"token_use,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningMethod string   // RS256 or HS256
	PublicKey     string   // PEM, for RS256 without JWKS
	SecretKey     string   // For HS256
	Keys          KeySource
	Issuer        string
	Audience      []string
}

// KeySource resolves an RSA public key by key ID.
type KeySource interface {
	PublicKey(kid string) (*rsa.PublicKey, error)
}

// JWTValidator handles JWT validation
type JWTValidator struct {
	publicKey     *rsa.PublicKey
	keys          KeySource
	secretKey     []byte
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	validator := &JWTValidator{
		issuer:   config.Issuer,
		audience: config.Audience,
	}

	switch config.SigningMethod {
	case "RS256":
		validator.signingMethod = jwt.SigningMethodRS256
		switch {
		case config.Keys != nil:
			validator.keys = config.Keys
		case config.PublicKey != "":
			key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(config.PublicKey))
			if err != nil {
				return nil, fmt.Errorf("failed to parse public key: %w", err)
			}
			validator.publicKey = key
		default:
			return nil, errors.New("public key or key source required for RS256")
		}
	case "HS256":
		validator.signingMethod = jwt.SigningMethodHS256
		if config.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		validator.secretKey = []byte(config.SecretKey)
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}

	return validator, nil
}

// ValidateToken validates a JWT token and returns the claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{v.signingMethod.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if len(v.audience) > 0 {
		validAudience := false
		for _, aud := range v.audience {
			if contains(claims.Audience, aud) {
				validAudience = true
				break
			}
		}
		if !validAudience {
			return nil, fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
		}
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidClaims)
	}

	return claims, nil
}

func (v *JWTValidator) keyFunc(token *jwt.Token) (interface{}, error) {
	switch v.signingMethod {
	case jwt.SigningMethodHS256:
		return v.secretKey, nil
	case jwt.SigningMethodRS256:
		if v.keys == nil {
			return v.publicKey, nil
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.keys.PublicKey(kid)
	default:
		return nil, errors.New("unknown signing method")
	}
}

// JWTGenerator issues HS256 tokens for local development and tests.
type JWTGenerator struct {
	secretKey  []byte
	issuer     string
	audience   []string
	expiryTime time.Duration
}

// NewJWTGenerator creates a new JWT generator
func NewJWTGenerator(secret, issuer string, audience []string, expiry time.Duration) (*JWTGenerator, error) {
	if secret == "" {
		return nil, errors.New("secret key required for HS256")
	}
	return &JWTGenerator{
		secretKey:  []byte(secret),
		issuer:     issuer,
		audience:   audience,
		expiryTime: expiry,
	}, nil
}

// GenerateToken generates a new JWT token
func (g *JWTGenerator) GenerateToken(email string, groups []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:    strings.ToLower(email),
		Groups:   groups,
		TokenUse: "id",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   uuid.NewString(),
			Audience:  g.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiryTime)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secretKey)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
