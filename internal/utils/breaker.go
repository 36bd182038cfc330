package utils

import (
	"errors" // Error inspection
	"time"   // Breaker timings

	"github.com/prometheus/client_golang/prometheus"          // Metric types
	"github.com/prometheus/client_golang/prometheus/promauto" // Auto-registered metrics
	"github.com/sirupsen/logrus"                              // Logging library
	gobreaker "github.com/sony/gobreaker/v2"                  // Circuit breaker
)

// BreakerState exposes each breaker's state (0 closed, 1 half-open, 2 open)
var BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "radar_circuit_breaker_state",
	Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
}, []string{"name"})

// NewBreaker builds a breaker that opens after the given number of consecutive failures
// and probes again after cooldown
func NewBreaker(name string, consecutive uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	BreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,        // One probe while half-open
		Timeout:     cooldown, // Open -> half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutive
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			BreakerState.WithLabelValues(name).Set(float64(to))
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// IsBreakerRejection reports whether err came from an open or saturated breaker
func IsBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
