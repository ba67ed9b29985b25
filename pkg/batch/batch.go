// Package batch drives a name fetch over the whole dye catalog: every item in
// load order, every language in fixed order, one request at a time.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/pkg/client"
	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
	"github.com/Sternrassler/xivapi-dye-names/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for batch progress.
var (
	itemsProcessedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "dye_items_processed_total",
		Help: "Total number of dyes whose names were fetched in all languages",
	})

	batchProgressRatio = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "dye_batch_progress_ratio",
		Help: "Fraction of the current batch that has been processed",
	})
)

// NameFetcher fetches one localized name, recording the outcome in stats.
// *client.Client implements it.
type NameFetcher interface {
	FetchName(ctx context.Context, stats *client.Stats, itemID dye.ItemID, lang dye.Language) (string, bool)
}

// Progress describes how far a run has come when an item starts.
type Progress struct {
	Index int // 1-based
	Total int
}

// Percent returns the progress as a percentage of the total.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Index) / float64(p.Total) * 100
}

// ProgressFunc is called on the first item and every ProgressEvery-th item.
type ProgressFunc func(Progress)

// Config holds batch configuration.
type Config struct {
	// Languages are fetched in this order for every item.
	Languages []dye.Language

	// ProgressEvery reports progress on every n-th item (and the first).
	ProgressEvery int

	// OnProgress receives progress reports; nil logs them.
	OnProgress ProgressFunc
}

// DefaultConfig returns the configuration the CLI uses.
func DefaultConfig() Config {
	return Config{
		Languages:     dye.Languages,
		ProgressEvery: 10,
	}
}

// Result is the outcome of a batch run.
type Result struct {
	// Records has one entry per input item, in input order.
	Records []dye.NameRecord

	// Stats accumulates requests, successes and failures across the run.
	Stats client.Stats

	Started  time.Time
	Finished time.Time
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Run fetches every configured language for every item. Per-request failures
// are recorded in the result and do not stop the run; a cancelled context
// stops it between items and returns the partial result with the context error.
func Run(ctx context.Context, fetcher NameFetcher, ids []dye.ItemID, cfg Config) (*Result, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = dye.Languages
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	report := cfg.OnProgress
	if report == nil {
		report = logProgress
	}

	result := &Result{
		Records: make([]dye.NameRecord, 0, len(ids)),
		Started: time.Now(),
	}
	defer func() { result.Finished = time.Now() }()

	batchProgressRatio.Set(0)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch interrupted after %d of %d items: %w", i, len(ids), err)
		}

		index := i + 1
		if index == 1 || index%cfg.ProgressEvery == 0 {
			report(Progress{Index: index, Total: len(ids)})
		}

		record := dye.NewNameRecord(id)
		for _, lang := range cfg.Languages {
			if name, ok := fetcher.FetchName(ctx, &result.Stats, id, lang); ok {
				record.Names[lang] = name
			}
		}
		result.Records = append(result.Records, record)

		itemsProcessedTotal.Inc()
		batchProgressRatio.Set(float64(index) / float64(len(ids)))
	}

	return result, nil
}

func logProgress(p Progress) {
	log.Info().
		Int("index", p.Index).
		Int("total", p.Total).
		Float64("progress_pct", p.Percent()).
		Msgf("Processing dye %d/%d... (%.0f%%)", p.Index, p.Total, p.Percent())
}

// Estimate returns the number of requests a run over items dyes will make
// without retries, and how long the pacing alone will take.
func Estimate(items int, languages []dye.Language, interval time.Duration) (int, time.Duration) {
	requests := items * len(languages)
	return requests, time.Duration(requests) * interval
}
