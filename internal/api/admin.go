package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"radar_backend/internal/service" // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// pageFromQuery reads ?page and ?page_size, falling back to defaults on bad input
func pageFromQuery(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))           // Page number
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20")) // Page size
	return service.Page{Page: page, PageSize: pageSize}.Normalize()
}

// userIDParam parses the :id path parameter
func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return uint(id), true
}

// ListUsersHandler returns a page of users, newest first
func ListUsersHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := admin.ListUsers(c.Request.Context(), pageFromQuery(c)) // Cached for a minute
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// SearchUserHandler finds a user by email or name fragment
func SearchUserHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := admin.SearchUser(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ApprovalRequest toggles approval
type ApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"` // New approval state
}

// SetApprovalHandler approves or revokes a user
func SetApprovalHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := requireUser(c)
		if !ok {
			return
		}
		userID, ok := userIDParam(c)
		if !ok {
			return
		}
		var req ApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := admin.SetApproval(c.Request.Context(), adminID, userID, *req.Approved)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// BlockRequest toggles blocking
type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"` // New block state
}

// SetBlockedHandler blocks or unblocks a user
func SetBlockedHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := requireUser(c)
		if !ok {
			return
		}
		userID, ok := userIDParam(c)
		if !ok {
			return
		}
		var req BlockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := admin.SetBlocked(c.Request.Context(), adminID, userID, *req.Blocked)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user and their history
func DeleteUserHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := requireUser(c)
		if !ok {
			return
		}
		userID, ok := userIDParam(c)
		if !ok {
			return
		}
		if err := admin.DeleteUser(c.Request.Context(), adminID, userID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}

// StatsHandler returns platform totals
func StatsHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := admin.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ListTransactionsHandler returns ledger entries, optionally filtered by user or type
func ListTransactionsHandler(admin *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := service.TransactionFilter{
			Type: c.Query("type"),  // Commission or Withdrawal
			Page: pageFromQuery(c), // Pagination
		}
		if uid := c.Query("user_id"); uid != "" {
			v, err := strconv.ParseUint(uid, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			filter.UserID = uint(v)
		}
		list, err := admin.ListTransactions(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
