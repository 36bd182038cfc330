package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/config"     // Application configuration
	"radar_backend/internal/market"     // Market analysis
	"radar_backend/internal/middleware" // Auth, limits, metrics
	"radar_backend/internal/service"    // Business services

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/sirupsen/logrus"                              // Logging library
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client // Optional
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Referrals *service.ReferralService
	Wallet    *service.WalletService
	Admin     *service.AdminService
	Notes     *service.NotificationService
	Extension *service.ExtensionService
	Market    *market.Service

	AuthLimiter     *middleware.RateLimiter // Optional
	WithdrawLimiter *middleware.RateLimiter // Optional
}

// limit applies rl when it is configured
func limit(rl *middleware.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(rl)
}

// NewRouter wires every route
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.Metrics())
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		logrus.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.GET("/healthz", HealthHandler(d.DB, d.Redis))  // Liveness and dependencies
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus scrape

	var revoked middleware.RevocationChecker
	if d.Extension != nil {
		revoked = d.Extension // Device-token revocation list
	}
	jwt := middleware.JWTAuthMiddleware(d.Config.JWTSecret, revoked) // Sessions and device tokens
	active := middleware.ActiveAccount(d.DB)                         // Blocked accounts lose their tokens

	api := r.Group("/api")

	// Auth routes
	auth := api.Group("/auth", limit(d.AuthLimiter))
	auth.POST("/login", LoginHandler(d.Auth))   // Login endpoint
	auth.POST("/signup", SignupHandler(d.Auth)) // Registration endpoint

	// User routes
	api.POST("/user/referral-code/validate", ValidateReferralCodeHandler(d.Referrals)) // Used by the signup form
	api.GET("/user/approval-status", ApprovalStatusHandler(d.Referrals))               // Polled by pending trainers
	user := api.Group("/user", jwt, active)
	user.GET("/dashboard", DashboardHandler(d.Dashboard))                                           // Wallet and referrals
	user.GET("/me", MeHandler(d.Referrals))                                                         // Profile
	user.POST("/referral-code", middleware.SessionOnly(), GenerateReferralCodeHandler(d.Referrals)) // New code

	// Wallet routes
	wallet := api.Group("/wallet", jwt, middleware.SessionOnly(), active)
	wallet.POST("/withdraw", limit(d.WithdrawLimiter), WithdrawHandler(d.Wallet)) // Payout

	// Extension routes
	ext := api.Group("/extension", jwt, active)
	ext.GET("/download", DownloadExtensionHandler(d.Extension))                             // Personalized archive
	ext.DELETE("/devices/:jti", middleware.SessionOnly(), RevokeDeviceHandler(d.Extension)) // Revoke a device token

	// Notification routes
	notes := api.Group("/notifications", jwt, active)
	notes.GET("", NotificationsHandler(d.Notes))               // Latest and unread count
	notes.POST("/read", MarkNotificationsReadHandler(d.Notes)) // Mark all read

	// Calculator routes
	xray := api.Group("/xray")
	xray.POST("/profit-calculator", ProfitCalculatorHandler()) // Profitability
	xray.GET("/sales-estimate", SalesEstimateHandler())        // Rank to sales

	// Market routes, called by the extension relay
	mkt := api.Group("/market")
	mkt.POST("/analyze", AnalyzeMarketHandler(d.Market))  // Niche scoring
	mkt.POST("/sourcing", SourcingHandler(d.Market))      // Supplier offers
	mkt.GET("/activity", MarketActivityHandler(d.Market)) // Live feed
	mkt.GET("/stats", MarketStatsHandler(d.Market))       // Feed aggregates

	// Admin routes (protected, admin only)
	admin := api.Group("/admin", jwt, middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/users", ListUsersHandler(d.Admin))                  // List users endpoint
	admin.GET("/users/search", SearchUserHandler(d.Admin))          // Search endpoint
	admin.PATCH("/users/:id/approval", SetApprovalHandler(d.Admin)) // Approve or revoke
	admin.PATCH("/users/:id/block", SetBlockedHandler(d.Admin))     // Block or unblock
	admin.DELETE("/users/:id", DeleteUserHandler(d.Admin))          // Delete user
	admin.GET("/stats", StatsHandler(d.Admin))                      // Platform totals
	admin.GET("/transactions", ListTransactionsHandler(d.Admin))    // List transactions endpoint

	return r
}

// HealthHandler reports whether the database and cache respond
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"], status["status"] = "down", "degraded"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"], status["status"] = "down", "degraded" // Caches degrade to database reads
			}
		}
		c.JSON(code, status)
	}
}
