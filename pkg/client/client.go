// Package client provides the XIVAPI item name client with request pacing,
// retry with exponential backoff, and failure accounting.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
	"github.com/Sternrassler/xivapi-dye-names/pkg/logging"
	"github.com/Sternrassler/xivapi-dye-names/pkg/ratelimit"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the XIVAPI v2 Item sheet endpoint.
const DefaultBaseURL = "https://v2.xivapi.com/api/sheet/Item"

// Client fetches localized item names from XIVAPI, one request at a time.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	pacer      ratelimit.Pacer
	retry      RetryConfig
	config     Config
	logger     zerolog.Logger

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the Item sheet endpoint; the item ID is appended as a path segment.
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Timeout is the per-request network timeout.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between requests when Pacer is nil.
	RequestInterval time.Duration

	// Pacer gates every request. Defaults to an in-process IntervalPacer.
	Pacer ratelimit.Pacer

	// Retry
	MaxRetries  int
	BackoffUnit time.Duration

	// Transport overrides the HTTP transport (for testing).
	Transport http.RoundTripper
}

// DefaultConfig returns the configuration used against the public XIVAPI.
func DefaultConfig(userAgent string) Config {
	retry := DefaultRetryConfig()
	return Config{
		BaseURL:         DefaultBaseURL,
		UserAgent:       userAgent,
		Timeout:         10 * time.Second,
		RequestInterval: ratelimit.DefaultInterval,
		MaxRetries:      retry.MaxRetries,
		BackoffUnit:     retry.BackoffUnit,
	}
}

// New creates a new XIVAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %v)", cfg.Timeout)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.BackoffUnit <= 0 {
		return nil, fmt.Errorf("backoff_unit must be > 0 (got %v)", cfg.BackoffUnit)
	}

	logger := logging.NewLogger("xivapi-client")

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = ratelimit.NewIntervalPacer(cfg.RequestInterval, logger)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		baseURL: baseURL,
		pacer:   pacer,
		retry: RetryConfig{
			MaxRetries:  cfg.MaxRetries,
			BackoffUnit: cfg.BackoffUnit,
		},
		config: cfg,
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// Stats accumulates request accounting across a batch run.
type Stats struct {
	// Requests counts every HTTP attempt, retries included.
	Requests int

	// Successes counts fetches that produced a name.
	Successes int

	// Failures lists every unrecoverable fetch in the order it happened.
	Failures []dye.Failure
}

// Failed reports whether any fetch failed.
func (s *Stats) Failed() bool {
	return len(s.Failures) > 0
}

// FetchName fetches the name of itemID in lang, recording attempts, the
// success or the failure in stats. It returns false when no name could be
// obtained; the reason is then the last entry of stats.Failures.
func (c *Client) FetchName(ctx context.Context, stats *Stats, itemID dye.ItemID, lang dye.Language) (string, bool) {
	name, err := c.Fetch(ctx, stats, itemID, lang)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = &FetchError{ItemID: itemID, Language: lang, Class: ErrorClassNetwork, Reason: err.Error(), Err: err}
		}
		stats.Failures = append(stats.Failures, fetchErr.Failure())
		xivapiFetchFailuresTotal.WithLabelValues(string(fetchErr.Class)).Inc()
		return "", false
	}

	stats.Successes++
	xivapiNamesFetchedTotal.WithLabelValues(string(lang)).Inc()
	return name, true
}

// Fetch performs the paced, retrying request for one item and language.
// Every attempt is counted in stats.Requests. Failures are returned as *FetchError.
func (c *Client) Fetch(ctx context.Context, stats *Stats, itemID dye.ItemID, lang dye.Language) (string, error) {
	reqURL := c.itemURL(itemID, lang)
	logger := logging.ForFetch(c.logger, int(itemID), string(lang))

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			class := ErrorClassNetwork
			if ctx.Err() != nil {
				class = ErrorClassCanceled
			}
			return "", &FetchError{
				ItemID: itemID, Language: lang, Class: class,
				Attempts: attempt, Reason: err.Error(), Err: err,
			}
		}

		stats.Requests++
		name, fetchErr := c.attempt(ctx, reqURL, itemID, lang)
		if fetchErr == nil {
			if attempt > 0 {
				logger.Info().Int("attempt", attempt+1).Msg("Request succeeded after retry")
			}
			return name, nil
		}
		fetchErr.Attempts = attempt + 1
		xivapiErrorsTotal.WithLabelValues(string(fetchErr.Class)).Inc()

		if !shouldRetry(fetchErr.Class) {
			c.logFailure(logger, fetchErr)
			return "", fetchErr
		}

		if attempt >= c.retry.MaxRetries {
			xivapiRetryExhaustedTotal.WithLabelValues(string(fetchErr.Class)).Inc()
			fetchErr.Reason = exhaustedReason(fetchErr.Class, fetchErr.StatusCode)
			if fetchErr.Err != nil {
				fetchErr.Err = fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, fetchErr.Attempts, fetchErr.Err)
			} else {
				fetchErr.Err = fmt.Errorf("%w after %d attempts", ErrRetryExhausted, fetchErr.Attempts)
			}
			c.logFailure(logger, fetchErr)
			return "", fetchErr
		}

		backoff := c.retry.Backoff(fetchErr.Class, attempt)
		xivapiRetriesTotal.WithLabelValues(string(fetchErr.Class)).Inc()
		xivapiRetryBackoffSeconds.WithLabelValues(string(fetchErr.Class)).Observe(backoff.Seconds())

		logger.Warn().
			Str("error_class", string(fetchErr.Class)).
			Int("status_code", fetchErr.StatusCode).
			Int("retry", attempt+1).
			Int("max_retries", c.retry.MaxRetries).
			Dur("backoff", backoff).
			Msg("Retrying request")

		if backoff > 0 {
			if err := c.sleep(ctx, backoff); err != nil {
				return "", &FetchError{
					ItemID: itemID, Language: lang, Class: ErrorClassCanceled,
					Attempts: attempt + 1, Reason: err.Error(), Err: err,
				}
			}
		}
	}
}

// extractName returns the string at fields.Name. Keys match exactly; any
// other shape yields ErrMissingName.
func extractName(body []byte) (string, error) {
	var row map[string]json.RawMessage
	if err := json.Unmarshal(body, &row); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	var fields map[string]json.RawMessage
	if raw, ok := row["fields"]; !ok || json.Unmarshal(raw, &fields) != nil {
		return "", ErrMissingName
	}
	var name string
	if raw, ok := fields["Name"]; !ok || json.Unmarshal(raw, &name) != nil || name == "" {
		return "", ErrMissingName
	}
	return name, nil
}

// attempt performs a single HTTP request and classifies its outcome.
func (c *Client) attempt(ctx context.Context, reqURL string, itemID dye.ItemID, lang dye.Language) (string, *FetchError) {
	startTime := time.Now()
	defer func() {
		xivapiRequestDuration.WithLabelValues(string(lang)).Observe(time.Since(startTime).Seconds())
	}()

	newErr := func(class ErrorClass, status int, reason string, err error) *FetchError {
		return &FetchError{ItemID: itemID, Language: lang, Class: class, StatusCode: status, Reason: reason, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", newErr(ErrorClassNetwork, 0, err.Error(), fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("Executing XIVAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := classifyTransportError(ctx, err)
		xivapiRequestsTotal.WithLabelValues(string(lang), string(class)).Inc()
		return "", newErr(class, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	xivapiRequestsTotal.WithLabelValues(string(lang), strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)

		class := classifyStatus(resp.StatusCode)
		var reason string
		var err error
		switch class {
		case ErrorClassNotFound:
			reason, err = "Not found", ErrNotFound
		case ErrorClassClient:
			reason = "HTTP " + resp.Status
		default:
			reason = resp.Status
		}
		return "", newErr(class, resp.StatusCode, reason, err)
	}

	// Client.Timeout also covers the body read.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		class := classifyTransportError(ctx, err)
		return "", newErr(class, resp.StatusCode, err.Error(), fmt.Errorf("read response: %w", err))
	}

	name, err := extractName(body)
	if errors.Is(err, ErrMissingName) {
		return "", newErr(ErrorClassMissingName, resp.StatusCode, "Missing Name field", err)
	}
	if err != nil {
		return "", newErr(ErrorClassMissingName, resp.StatusCode, "Invalid response body", err)
	}
	return name, nil
}

// itemURL builds {base}/{itemID}?language={lang}&fields=Name.
func (c *Client) itemURL(itemID dye.ItemID, lang dye.Language) string {
	u := c.baseURL.JoinPath(strconv.Itoa(int(itemID)))
	q := u.Query()
	q.Set("language", string(lang))
	q.Set("fields", "Name")
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) logFailure(logger zerolog.Logger, err *FetchError) {
	event := logger.Error()
	if err.Class == ErrorClassNotFound || err.Class == ErrorClassMissingName {
		event = logger.Warn()
	}
	event.
		Str("error_class", string(err.Class)).
		Int("status_code", err.StatusCode).
		Int("attempts", err.Attempts).
		Str("reason", err.Reason).
		Msg("Name fetch failed")
}

// classifyStatus categorizes a non-2xx HTTP status.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode == http.StatusNotFound:
		return ErrorClassNotFound
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// classifyTransportError separates per-request timeouts from cancellation of
// the whole run and from other transport failures.
func classifyTransportError(ctx context.Context, err error) ErrorClass {
	if ctx.Err() != nil {
		return ErrorClassCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}
