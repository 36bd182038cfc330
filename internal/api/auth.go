package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/service" // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email"`    // Login email
	Password string `json:"password"` // Plain password
}

// LoginHandler authenticates a user and returns a JWT token with the user's profile
func LoginHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := auth.Login(c.Request.Context(), req.Email, req.Password) // Verify credentials
		if err != nil {
			respondError(c, err) // 401, 403 or 500
			return
		}
		c.JSON(http.StatusOK, res) // {token, user}
	}
}

// SignupHandler registers a user, crediting the referrer when a valid code is supplied
func SignupHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SignupInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := auth.Signup(c.Request.Context(), req) // Create the account
		if err != nil {
			respondError(c, err) // 400 or 500
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user}) // Sanitized subset
	}
}
