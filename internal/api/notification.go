package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/service" // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// NotificationsHandler returns the caller's latest notifications and unread count
func NotificationsHandler(notes *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		inbox, err := notes.List(c.Request.Context(), userID)
		if err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Notifications fetched", inbox)
	}
}

// MarkNotificationsReadHandler clears the caller's unread notifications
func MarkNotificationsReadHandler(notes *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		if _, err := notes.MarkAllRead(c.Request.Context(), userID); err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Notifications marked read", nil)
	}
}
