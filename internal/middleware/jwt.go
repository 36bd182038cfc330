package middleware

import (
	"context"  // Revocation lookups
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"radar_backend/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Context keys set by JWTAuthMiddleware
const (
	UserIDKey = "userID" // uint user id
	ClaimsKey = "claims" // *utils.Claims
	TokenKey  = "token"  // raw bearer token
)

// RevocationChecker reports whether a device token id has been revoked
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuthMiddleware validates JWT tokens and extracts user information.
// revoked may be nil when device tokens are not in use.
func JWTAuthMiddleware(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)                          // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		// Device tokens can be revoked by their owner
		if claims.IsDevice() && revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.RegisteredClaims.ID)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": claims.ID,   // Token owner
					"error":   err.Error(), // Error message
				}).Warn("Revocation lookup failed") // Fail closed below
			}
			if err != nil || isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
		}
		c.Set(UserIDKey, claims.ID) // Store userID in context
		c.Set(ClaimsKey, claims)    // Store claims in context
		c.Set(TokenKey, tokenStr)   // Store raw token in context
		c.Next()                    // Proceed to the next handler
	}
}

// CurrentClaims returns the claims stored by JWTAuthMiddleware
func CurrentClaims(c *gin.Context) (*utils.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

// SessionOnly rejects extension device tokens on routes that need an interactive session
func SessionOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := CurrentClaims(c); ok && claims.IsDevice() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Session token required"}) // Device tokens are read-only
			return
		}
		c.Next()
	}
}
