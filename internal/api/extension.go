package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/middleware" // Auth context
	"radar_backend/internal/service"    // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// DownloadExtensionHandler streams the caller's personalized extension archive
func DownloadExtensionHandler(ext *service.ExtensionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if claims.IsDevice() {
			// An installed extension cannot mint further packages
			c.JSON(http.StatusForbidden, gin.H{"error": "Session token required"})
			return
		}
		pkg, err := ext.BuildPackage(c.Request.Context(), claims, c.GetString(middleware.TokenKey))
		if err != nil {
			respondError(c, err)
			return
		}
		if pkg.DeviceID != "" {
			c.Header("X-Device-Id", pkg.DeviceID) // Handle for later revocation
		}
		c.Header("Content-Disposition", "attachment; filename="+pkg.Filename)
		c.Data(http.StatusOK, "application/zip", pkg.Data)
	}
}

// RevokeDeviceHandler revokes one of the caller's device tokens
func RevokeDeviceHandler(ext *service.ExtensionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		if err := ext.Revoke(c.Request.Context(), userID, c.Param("jti")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Device revoked"})
	}
}
