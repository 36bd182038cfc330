package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing
	"strings"  // Input trimming

	"radar_backend/internal/service" // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// DashboardHandler returns the caller's wallet, referrals and recent transactions
func DashboardHandler(dash *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		d, err := dash.Get(c.Request.Context(), userID) // Cached read
		if err != nil {
			respondError(c, err) // 404 when the account is gone
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// MeHandler returns the caller's sanitized profile
func MeHandler(refs *service.ReferralService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		profile, err := refs.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// GenerateReferralCodeHandler issues a short-lived referral code for the caller
func GenerateReferralCodeHandler(refs *service.ReferralService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		code, err := refs.Generate(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, code) // {code, expiry}
	}
}

// ValidateCodeRequest is the code validation body
type ValidateCodeRequest struct {
	Code string `json:"code"` // Code to check
}

// ValidateReferralCodeHandler checks whether a referral code is live
func ValidateReferralCodeHandler(refs *service.ReferralService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := refs.Validate(c.Request.Context(), strings.TrimSpace(req.Code))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ApprovalStatusHandler reports whether ?userId= is approved. Unknown or malformed ids are not.
func ApprovalStatusHandler(refs *service.ReferralService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Query("userId"), 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusOK, gin.H{"approved": false})
			return
		}
		approved, err := refs.ApprovalStatus(c.Request.Context(), uint(id))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"approved": approved})
	}
}
