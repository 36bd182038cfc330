package utils

import (
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Token identifiers
)

// ScopeExtension marks device tokens embedded in downloaded extensions
const ScopeExtension = "extension"

// JWT Claims
type Claims struct {
	ID                   uint   `json:"id"`              // User ID
	Email                string `json:"email"`           // User email
	Role                 string `json:"role"`            // User role
	Scope                string `json:"scope,omitempty"` // Empty for sessions, "extension" for device tokens
	jwt.RegisteredClaims                                 // Standard JWT claims
}

// IsDevice reports whether the claims belong to an extension device token
func (c *Claims) IsDevice() bool {
	return c.Scope == ScopeExtension
}

// GenerateJWT creates a session token carrying the user's id, email and role
func GenerateJWT(id uint, email, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now() // Issue time
	claims := Claims{
		ID:    id,    // User ID
		Email: email, // User email
		Role:  role,  // User role
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// GenerateDeviceJWT creates a scoped, revocable token for an extension install.
// It returns the signed token and its unique id.
func GenerateDeviceJWT(id uint, email, role, secret string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString() // Revocation handle
	claims := Claims{
		ID:    id,
		Email: email,
		Role:  role,
		Scope: ScopeExtension,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.ID != 0 {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
