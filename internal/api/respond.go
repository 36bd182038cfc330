package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"radar_backend/internal/domain"     // Error taxonomy
	"radar_backend/internal/middleware" // Request ids

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps an error kind to its HTTP status. Internal is checked first so that a
// wrapped classified error never leaks through a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-safe text for err
func errorMessage(c *gin.Context, status int, err error) string {
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),                         // Matched route
			"request_id": c.GetString(middleware.RequestIDKey), // Correlation id
			"error":      err.Error(),                          // Full error chain, server side only
		}).Error("Request failed")
		return "Internal server error"
	}
	var classified *domain.Error
	if errors.As(err, &classified) {
		return classified.Msg // Safe message
	}
	return http.StatusText(status)
}

// respondError writes {"error": message} with the status of err's kind
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, gin.H{"error": errorMessage(c, status, err)})
}

// respondEnvelope writes the {success, message, error, data} envelope the market endpoints use
func respondEnvelope(c *gin.Context, status int, message string, data any) {
	success := status < http.StatusBadRequest
	body := gin.H{
		"success": success, // Outcome flag
		"message": message, // Human-readable summary
		"error":   nil,     // Failure message, null on success
		"data":    data,    // Payload
	}
	if !success {
		body["error"] = message
	}
	c.JSON(status, body)
}

// respondEnvelopeError writes a failed envelope for err
func respondEnvelopeError(c *gin.Context, err error) {
	status := statusFor(err)
	respondEnvelope(c, status, errorMessage(c, status, err), nil)
}

// currentUserID returns the authenticated user's id
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.UserIDKey) // Set by JWTAuthMiddleware
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// requireUser returns the caller's id or writes a 401
func requireUser(c *gin.Context) (uint, bool) {
	id, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}
