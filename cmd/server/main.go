package main

import (
	"context"   // Redis ping and shutdown deadline
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Durations

	"radar_backend/internal/api"        // HTTP handlers and router
	"radar_backend/internal/config"     // Application configuration
	"radar_backend/internal/db"         // Database connection and migration
	"radar_backend/internal/market"     // Market analysis
	"radar_backend/internal/middleware" // Rate limiters
	"radar_backend/internal/service"    // Business services
	"radar_backend/internal/utils"      // Password hashing

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set") // Tokens cannot be signed without it
	}

	conn, err := db.Open(cfg) // Connect to MySQL
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		if cfg.IsProd {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		logrus.WithError(err).Warn("Redis unavailable, running without caches and device revocation")
		_ = redisClient.Close()
		redisClient = nil
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	serp := market.NewClient(cfg.SerpAPIURL, cfg.SerpAPIKey, cfg.UpstreamTimeout) // Market data provider
	if !serp.Configured() {
		logrus.Warn("SERPAPI_KEY not set, keyword analysis and sourcing are disabled")
	}

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, 15*time.Minute)    // Login and signup attempts
	withdrawLimiter := middleware.NewRateLimiter(cfg.WithdrawRateLimit, time.Hour) // Payout requests
	defer authLimiter.Stop()
	defer withdrawLimiter.Stop()

	r := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        conn,
		Redis:     redisClient,
		Auth:      service.NewAuthService(conn, redisClient, utils.NewBcryptHasher(), cfg),
		Dashboard: service.NewDashboardService(conn, redisClient, cfg.DashboardCacheTTL),
		Referrals: service.NewReferralService(conn, redisClient),
		Wallet:    service.NewWalletService(conn, redisClient),
		Admin:     service.NewAdminService(conn, redisClient),
		Notes:     service.NewNotificationService(conn),
		Extension: service.NewExtensionService(cfg, redisClient),
		Market:    market.NewService(serp, market.NewActivityFeed(redisClient)),

		AuthLimiter:     authLimiter,
		WithdrawLimiter: withdrawLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
