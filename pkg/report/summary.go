// Package report prints the end-of-run summary and derives the process exit code.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/pkg/batch"
	"github.com/Sternrassler/xivapi-dye-names/pkg/client"
	"github.com/rs/zerolog/log"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

var rule = strings.Repeat("=", 70)

// ExitCode returns ExitOK when no fetch failed and ExitFailure otherwise.
func ExitCode(stats *client.Stats) int {
	if stats.Failed() {
		return ExitFailure
	}
	return ExitOK
}

// Summary is what the run reports once the CSV is written.
type Summary struct {
	Items      int
	Stats      client.Stats
	Duration   time.Duration
	OutputPath string
}

// FromResult builds a summary of a finished batch.
func FromResult(result *batch.Result, outputPath string) Summary {
	return Summary{
		Items:      len(result.Records),
		Stats:      result.Stats,
		Duration:   result.Duration(),
		OutputPath: outputPath,
	}
}

// Write prints the human readable summary block to w.
func (s Summary) Write(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Summary")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total dyes processed: %d\n", s.Items)
	fmt.Fprintf(&b, "Total requests made: %d\n", s.Stats.Requests)
	fmt.Fprintf(&b, "Successful requests: %d\n", s.Stats.Successes)
	fmt.Fprintf(&b, "Failed requests: %d\n", len(s.Stats.Failures))
	fmt.Fprintf(&b, "Total time: %.1f seconds\n", s.Duration.Seconds())

	if len(s.Stats.Failures) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Failed requests:")
		for _, f := range s.Stats.Failures {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Output: %s\n", s.OutputPath)
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// Log emits the summary as one structured log event.
func (s Summary) Log() {
	event := log.Info()
	if s.Stats.Failed() {
		event = log.Warn()
	}
	event.
		Int("items", s.Items).
		Int("requests", s.Stats.Requests).
		Int("successful", s.Stats.Successes).
		Int("failed", len(s.Stats.Failures)).
		Dur("duration", s.Duration).
		Str("output", s.OutputPath).
		Msg("Dye name fetch finished")
}

// Banner prints the run header.
func Banner(w io.Writer, title string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}
