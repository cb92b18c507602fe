// Package ratelimit spaces outbound gBizINFO requests by a fixed interval.
// A single flow of control issues requests serially; the limiter guarantees
// no two of them start closer together than the configured interval.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultInterval is the default delay between requests.
const DefaultInterval = 200 * time.Millisecond

// Prometheus metrics for request pacing.
var (
	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gbiz_ratelimit_wait_seconds",
		Help:    "Time spent waiting for the request interval to elapse",
		Buckets: []float64{0, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	})

	waitCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbiz_ratelimit_wait_cancelled_total",
		Help: "Total number of waits aborted by context cancellation",
	})
)

// Limiter enforces a minimum interval between consecutive requests.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	logger   zerolog.Logger
}

// NewLimiter creates a limiter. An interval <= 0 disables pacing.
func NewLimiter(interval time.Duration, logger zerolog.Logger) *Limiter {
	if interval < 0 {
		interval = 0
	}
	return &Limiter{
		// rate.Every(0) is rate.Inf, which never blocks.
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the next request may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		waitCancelledTotal.Inc()
		return fmt.Errorf("rate limit wait: %w", err)
	}

	waited := time.Since(start)
	waitSeconds.Observe(waited.Seconds())
	if waited > 0 {
		l.logger.Trace().Dur("waited", waited).Msg("Request paced")
	}
	return nil
}
