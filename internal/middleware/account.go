package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"radar_backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ActiveAccount rejects tokens whose account has been blocked since they were issued.
// Sessions and device tokens outlive a block, so the flag is re-read on each request.
// A deleted account passes through and the handler reports it as not found.
func ActiveAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Set by JWTAuthMiddleware
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		err := db.WithContext(c.Request.Context()).Select("id", "is_blocked").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Next()
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Token owner
				"error":   err.Error(), // Error message
			}).Error("Account status lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if user.IsBlocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrAccountBlocked.Msg})
			return
		}
		c.Next()
	}
}
