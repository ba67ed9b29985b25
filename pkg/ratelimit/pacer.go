// Package ratelimit paces outgoing XIVAPI requests so the fetcher stays under
// the API's requests-per-second ceiling instead of relying on 429 responses.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultInterval spaces requests 100ms apart (10 requests per second).
const DefaultInterval = 100 * time.Millisecond

// Prometheus metrics for request pacing.
var (
	pacerWaitSeconds = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xivapi_pacer_wait_seconds",
		Help:    "Time spent waiting for a request slot by pacer backend",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"backend"})
)

// Pacer blocks until the next request may be sent.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer keeps request starts at least Interval apart within one process.
type IntervalPacer struct {
	limiter  *rate.Limiter
	interval time.Duration
	logger   zerolog.Logger
}

// EffectiveInterval returns the spacing a pacer built with interval enforces.
// Non-positive intervals fall back to DefaultInterval.
func EffectiveInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		return DefaultInterval
	}
	return interval
}

// NewIntervalPacer creates an in-process pacer.
func NewIntervalPacer(interval time.Duration, logger zerolog.Logger) *IntervalPacer {
	interval = EffectiveInterval(interval)
	return &IntervalPacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the minimum spacing between requests.
func (p *IntervalPacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next request slot or until ctx is done.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	waited := time.Since(start)
	pacerWaitSeconds.WithLabelValues("memory").Observe(waited.Seconds())

	p.logger.Debug().Dur("waited", waited).Msg("Request slot acquired")
	return nil
}
