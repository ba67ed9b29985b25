// Command dye-names fetches the localized names of every dye in the dye
// catalog from XIVAPI and writes them to a CSV file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/pkg/batch"
	"github.com/Sternrassler/xivapi-dye-names/pkg/client"
	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
	"github.com/Sternrassler/xivapi-dye-names/pkg/export"
	"github.com/Sternrassler/xivapi-dye-names/pkg/logging"
	"github.com/Sternrassler/xivapi-dye-names/pkg/metrics"
	"github.com/Sternrassler/xivapi-dye-names/pkg/ratelimit"
	"github.com/Sternrassler/xivapi-dye-names/pkg/report"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// options holds the command line configuration.
type options struct {
	inputPath     string
	outputPath    string
	baseURL       string
	userAgent     string
	redisURL      string
	metricsFile   string
	logLevel      string
	logPretty     bool
	interval      time.Duration
	timeout       time.Duration
	maxRetries    int
	backoffUnit   time.Duration
	progressEvery int
}

// exitCodeError carries a non-zero exit code for a run that completed but
// recorded failures.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			stop()
			os.Exit(exitErr.code)
		}
		log.Error().Err(err).Msg("Dye name fetch failed")
		stop()
		os.Exit(report.ExitFailure)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	retry := client.DefaultRetryConfig()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "dye-names",
		Short:         "Fetch localized FFXIV dye names from XIVAPI into a CSV file",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(cmd.Context(), opts, stdout)
			if err != nil {
				return err
			}
			if code != report.ExitOK {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.inputPath, "input", "i", getEnv("INPUT_PATH", "../XIVDyeTools/assets/json/colors_xiv.json"), "dye catalog JSON file")
	flags.StringVarP(&opts.outputPath, "output", "o", getEnv("OUTPUT_PATH", "scripts/output/dye_names.csv"), "CSV output file")
	flags.StringVar(&opts.baseURL, "base-url", getEnv("XIVAPI_BASE_URL", client.DefaultBaseURL), "XIVAPI Item sheet endpoint")
	flags.StringVar(&opts.userAgent, "user-agent", getEnv("USER_AGENT", "xivapi-dye-names/"+version), "User-Agent header")
	flags.StringVar(&opts.redisURL, "redis-url", getEnv("REDIS_URL", ""), "share request pacing through this Redis (host:port or redis:// URL)")
	flags.StringVar(&opts.metricsFile, "metrics-file", getEnv("METRICS_FILE", ""), "write Prometheus metrics to this textfile after the run")
	flags.StringVar(&opts.logLevel, "log-level", getEnv("LOG_LEVEL", string(logging.LevelInfo)), "debug, info, warn or error")
	flags.BoolVar(&opts.logPretty, "log-pretty", getEnvBool("LOG_PRETTY", true), "console log output instead of JSON")
	flags.DurationVar(&opts.interval, "interval", ratelimit.DefaultInterval, "minimum delay between requests")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request network timeout")
	flags.IntVar(&opts.maxRetries, "max-retries", retry.MaxRetries, "retries for rate limit, server error and timeout responses")
	flags.DurationVar(&opts.backoffUnit, "backoff-unit", retry.BackoffUnit, "base of the exponential backoff (retry n waits 2^n units)")
	flags.IntVar(&opts.progressEvery, "progress-every", 10, "report progress every n dyes")

	return cmd
}

// run executes one fetch and returns the process exit code. A returned error
// is fatal: bad flags, unreadable input or unwritable output.
func run(ctx context.Context, opts *options, stdout io.Writer) (int, error) {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return report.ExitFailure, err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = opts.logPretty
	logCfg.NoColor = os.Getenv("NO_COLOR") != ""
	logging.Setup(logCfg)

	report.Banner(stdout, "FFXIV Dye Name Fetcher")

	ids, err := dye.LoadItemIDs(opts.inputPath)
	if err != nil {
		return report.ExitFailure, fmt.Errorf("load dye data: %w", err)
	}

	interval := ratelimit.EffectiveInterval(opts.interval)
	requests, estimate := batch.Estimate(len(ids), dye.Languages, interval)
	codes := make([]string, len(dye.Languages))
	for i, lang := range dye.Languages {
		codes[i] = string(lang)
	}
	fmt.Fprintf(stdout, "Found %d dyes to process\n", len(ids))
	fmt.Fprintf(stdout, "Fetching names in %d languages (%s)\n", len(dye.Languages), strings.Join(codes, ", "))
	fmt.Fprintf(stdout, "Total requests: %d\n", requests)
	fmt.Fprintf(stdout, "Estimated time: ~%.0f seconds\n\n", estimate.Seconds())

	cfg := client.DefaultConfig(opts.userAgent)
	cfg.BaseURL = opts.baseURL
	cfg.Timeout = opts.timeout
	cfg.RequestInterval = interval
	cfg.MaxRetries = opts.maxRetries
	cfg.BackoffUnit = opts.backoffUnit

	if opts.redisURL != "" {
		redisClient, err := connectRedis(ctx, opts.redisURL)
		if err != nil {
			return report.ExitFailure, err
		}
		defer redisClient.Close()

		pacer, err := ratelimit.NewRedisPacer(redisClient, interval, logging.NewLogger("pacer"))
		if err != nil {
			return report.ExitFailure, err
		}
		cfg.Pacer = pacer
	}

	xivapi, err := client.New(cfg)
	if err != nil {
		return report.ExitFailure, fmt.Errorf("create xivapi client: %w", err)
	}

	batchCfg := batch.DefaultConfig()
	batchCfg.ProgressEvery = opts.progressEvery
	batchCfg.OnProgress = func(p batch.Progress) {
		fmt.Fprintf(stdout, "Processing dye %d/%d... (%.0f%%)\n", p.Index, p.Total, p.Percent())
	}

	result, err := batch.Run(ctx, xivapi, ids, batchCfg)
	if err != nil {
		return report.ExitFailure, err
	}

	fmt.Fprintf(stdout, "\nGenerating CSV: %s\n", opts.outputPath)
	if err := export.WriteFile(opts.outputPath, result.Records); err != nil {
		return report.ExitFailure, fmt.Errorf("write csv: %w", err)
	}
	fmt.Fprintf(stdout, "CSV generated successfully: %s\n", opts.outputPath)

	summary := report.FromResult(result, opts.outputPath)
	if err := summary.Write(stdout); err != nil {
		log.Warn().Err(err).Msg("Failed to print summary")
	}
	summary.Log()

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			log.Warn().Err(err).Str("path", opts.metricsFile).Msg("Failed to write metrics")
		}
	}

	return report.ExitCode(&result.Stats), nil
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	redisOpts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisOpts = parsed
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
	}
	log.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis, sharing request pacing")
	return redisClient, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
