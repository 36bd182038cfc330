package main

import (
	"context"   // Cancellation
	"os"        // Standard streams
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM

	"radar_backend/internal/config" // Application configuration
	"radar_backend/internal/relay"  // Native messaging relay

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point of the native messaging host the browser extension talks to.
// Stdout carries framed replies, so logs must stay on stderr.
func main() {
	cfg := config.LoadConfig() // Load configuration

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	logrus.SetLevel(logrus.DebugLevel)
	if cfg.IsProd {
		logrus.SetLevel(logrus.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithField("backend", cfg.BackendURL).Info("Relay started")
	host := relay.NewHost(relay.New(cfg.BackendURL, cfg.RelayTimeout), os.Stdin, os.Stdout)
	if err := host.Serve(ctx); err != nil {
		logrus.Fatalf("relay stopped: %v", err)
	}
	logrus.Info("Relay stopped")
}
