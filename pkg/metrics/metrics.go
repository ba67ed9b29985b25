// Package metrics exposes the Prometheus registry the fetcher's metrics are
// registered in and writes it out at the end of a run.
// Metrics are defined in their respective packages (client, ratelimit, batch)
// via promauto.With(Registry).
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the fetcher's own metrics. No Go runtime or process
// collectors are registered on it.
var Registry = prometheus.NewRegistry()

// Gatherer collects the metrics written by WriteTextfile.
var Gatherer prometheus.Gatherer = Registry

// WriteTextfile writes the current metric values to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - xivapi_requests_total{language, status} (Counter): Attempts by language and HTTP status or error class
//   - xivapi_request_duration_seconds{language} (Histogram): Attempt duration
//   - xivapi_errors_total{class} (Counter): Failed attempts by error class
//   - xivapi_names_fetched_total{language} (Counter): Names fetched successfully
//   - xivapi_fetch_failures_total{error_class} (Counter): Unrecoverable fetches
//
// Retry Metrics (pkg/client):
//   - xivapi_retries_total{error_class} (Counter): Retry attempts by error class
//   - xivapi_retry_backoff_seconds{error_class} (Histogram): Backoff before each retry
//   - xivapi_retry_exhausted_total{error_class} (Counter): Fetches that ran out of retries
//
// Pacing Metrics (pkg/ratelimit):
//   - xivapi_pacer_wait_seconds{backend} (Histogram): Wait for a request slot (memory, redis)
//
// Batch Metrics (pkg/batch):
//   - dye_items_processed_total (Counter): Dyes fetched in all languages
//   - dye_batch_progress_ratio (Gauge): Fraction of the current batch processed
//
// Example Prometheus Queries:
//
//   # Failed fetch ratio
//   sum(xivapi_fetch_failures_total) /
//   (sum(xivapi_fetch_failures_total) + sum(xivapi_names_fetched_total))
//
//   # Retries per request
//   sum(xivapi_retries_total) / sum(xivapi_requests_total)
