// Package ratelimit implements the shared send gate for the CourtListener
// API. One external service means one shared request budget: every outbound
// request must pass through a single Gate that enforces a minimum spacing
// between sends, regardless of how many goroutines issue requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Prometheus metrics for the send gate.
var (
	gateSendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_rate_gate_sends_total",
		Help: "Total requests released by the rate gate",
	})

	gateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recap_rate_gate_wait_seconds",
		Help:    "Time spent waiting at the rate gate before a send",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
	})

	gateCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_rate_gate_cancelled_total",
		Help: "Total gate waits abandoned due to context cancellation",
	})
)

// DefaultInterval is the default minimum spacing between outbound requests.
const DefaultInterval = time.Second

// Gate enforces a minimum interval between outbound requests. It is an
// owned object, not ambient global state: callers construct one per external
// service and share it by handle, so tests can instantiate independent gates.
//
// The gate is safe for concurrent use; the underlying limiter serializes the
// "compute next eligible send time" step, so actual network sends stay spaced
// even if case processing is parallelized later.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate creates a gate with the given minimum interval between sends.
// A non-positive interval falls back to DefaultInterval.
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultInterval
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
	}
}

// Wait blocks until the next send is permitted or the context is done.
// Returns the context error if the wait was abandoned.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		gateCancelledTotal.Inc()
		return fmt.Errorf("rate gate wait: %w", err)
	}
	gateWaitSeconds.Observe(time.Since(start).Seconds())
	gateSendsTotal.Inc()
	return nil
}

// Interval returns the configured minimum spacing between sends.
func (g *Gate) Interval() time.Duration {
	return g.interval
}
