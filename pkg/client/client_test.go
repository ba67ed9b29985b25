package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/xivapi-dye-names/internal/testutil"
	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
)

// countingPacer never blocks and counts how often it was asked for a slot.
type countingPacer struct {
	waits int
	err   error
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return p.err
}

// newTestClient creates a client against baseURL that records backoffs
// instead of sleeping.
func newTestClient(t *testing.T, baseURL string) (*Client, *countingPacer, *[]time.Duration) {
	t.Helper()

	pacer := &countingPacer{}
	cfg := DefaultConfig("TestApp/1.0.0 (test@example.com)")
	cfg.BaseURL = baseURL
	cfg.Pacer = pacer

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	backoffs := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*backoffs = append(*backoffs, d)
		return ctx.Err()
	}
	return c, pacer, backoffs
}

func TestNew_Validation(t *testing.T) {
	valid := DefaultConfig("TestApp/1.0.0")

	tests := []struct {
		name     string
		mutate   func(cfg *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:     "empty user agent",
			mutate:   func(cfg *Config) { cfg.UserAgent = "" },
			errorMsg: "user-agent is required",
		},
		{
			name:     "relative base url",
			mutate:   func(cfg *Config) { cfg.BaseURL = "/api/sheet/Item" },
			errorMsg: `invalid base url "/api/sheet/Item"`,
		},
		{
			name:     "zero timeout",
			mutate:   func(cfg *Config) { cfg.Timeout = 0 },
			errorMsg: "timeout must be > 0 (got 0s)",
		},
		{
			name:     "negative retries",
			mutate:   func(cfg *Config) { cfg.MaxRetries = -1 },
			errorMsg: "max_retries must be >= 0 (got -1)",
		},
		{
			name:     "zero backoff unit",
			mutate:   func(cfg *Config) { cfg.BackoffUnit = 0 },
			errorMsg: "backoff_unit must be > 0 (got 0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			client, err := New(cfg)
			if tt.errorMsg != "" {
				if err == nil {
					t.Fatalf("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Client is nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(userAgent)

	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.RequestInterval != 100*time.Millisecond {
		t.Errorf("RequestInterval = %v, want 100ms", cfg.RequestInterval)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BackoffUnit != time.Second {
		t.Errorf("BackoffUnit = %v, want 1s", cfg.BackoffUnit)
	}
}

func TestItemURL(t *testing.T) {
	c, _, _ := newTestClient(t, "https://v2.xivapi.com/api/sheet/Item")

	got := c.itemURL(5729, dye.LanguageJapanese)
	want := "https://v2.xivapi.com/api/sheet/Item/5729?fields=Name&language=ja"
	if got != want {
		t.Errorf("itemURL() = %q, want %q", got, want)
	}
}

func TestFetchName_Success(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetName(5729, "en", "Snow White Dye")

	c, pacer, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	name, ok := c.FetchName(context.Background(), stats, 5729, dye.LanguageEnglish)
	if !ok {
		t.Fatalf("FetchName() failed: %+v", stats.Failures)
	}
	if name != "Snow White Dye" {
		t.Errorf("name = %q, want %q", name, "Snow White Dye")
	}

	if stats.Requests != 1 || stats.Successes != 1 || stats.Failed() {
		t.Errorf("stats = %+v, want 1 request, 1 success, no failures", stats)
	}
	if pacer.waits != 1 {
		t.Errorf("pacer waits = %d, want 1", pacer.waits)
	}
	if len(*backoffs) != 0 {
		t.Errorf("backoffs = %v, want none", *backoffs)
	}

	query := mock.GetLastQuery()
	if query["language"] != "en" || query["fields"] != "Name" {
		t.Errorf("query = %v, want language=en fields=Name", query)
	}
	header := mock.GetLastRequestHeader()
	if ua := header.Get("User-Agent"); ua != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", ua)
	}
	if accept := header.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
}

func TestFetchName_RateLimitThenSuccess(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(1, "en",
		testutil.NewRateLimitResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewNameResponse(1, "Snow White"),
	)

	c, pacer, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	name, ok := c.FetchName(context.Background(), stats, 1, dye.LanguageEnglish)
	if !ok || name != "Snow White" {
		t.Fatalf("FetchName() = (%q, %v), want (Snow White, true)", name, ok)
	}

	if stats.Requests != 3 {
		t.Errorf("Requests = %d, want 3", stats.Requests)
	}
	if stats.Successes != 1 {
		t.Errorf("Successes = %d, want 1", stats.Successes)
	}
	if stats.Failed() {
		t.Errorf("Failures = %v, want none", stats.Failures)
	}
	if got := mock.GetItemRequestCount(1, "en"); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
	if pacer.waits != 3 {
		t.Errorf("pacer waits = %d, want 3 (one per attempt)", pacer.waits)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*backoffs) != len(want) {
		t.Fatalf("backoffs = %v, want %v", *backoffs, want)
	}
	for i := range want {
		if (*backoffs)[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, (*backoffs)[i], want[i])
		}
	}
}

func TestFetchName_NotFoundNoRetry(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(42, "de", testutil.NewNotFoundResponse())

	c, _, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	name, ok := c.FetchName(context.Background(), stats, 42, dye.LanguageGerman)
	if ok || name != "" {
		t.Fatalf("FetchName() = (%q, %v), want (\"\", false)", name, ok)
	}

	if got := mock.GetItemRequestCount(42, "de"); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if stats.Requests != 1 {
		t.Errorf("Requests = %d, want 1", stats.Requests)
	}
	if len(*backoffs) != 0 {
		t.Errorf("backoffs = %v, want none", *backoffs)
	}

	want := dye.Failure{ItemID: 42, Language: dye.LanguageGerman, Reason: "Not found"}
	if len(stats.Failures) != 1 || stats.Failures[0] != want {
		t.Errorf("Failures = %v, want [%v]", stats.Failures, want)
	}
}

func TestFetchName_ServerErrorExhausted(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(7, "fr", testutil.NewServerErrorResponse())

	c, _, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	_, ok := c.FetchName(context.Background(), stats, 7, dye.LanguageFrench)
	if ok {
		t.Fatal("FetchName() succeeded, want failure")
	}

	maxAttempts := DefaultRetryConfig().MaxAttempts()
	if got := mock.GetItemRequestCount(7, "fr"); got != maxAttempts {
		t.Errorf("server saw %d requests, want %d", got, maxAttempts)
	}
	if stats.Requests != maxAttempts {
		t.Errorf("Requests = %d, want %d", stats.Requests, maxAttempts)
	}
	if stats.Successes != 0 {
		t.Errorf("Successes = %d, want 0", stats.Successes)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(*backoffs) != len(want) {
		t.Fatalf("backoffs = %v, want %v", *backoffs, want)
	}
	for i := range want {
		if (*backoffs)[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, (*backoffs)[i], want[i])
		}
	}

	if len(stats.Failures) != 1 {
		t.Fatalf("Failures = %v, want 1 entry", stats.Failures)
	}
	if stats.Failures[0].Reason != "Server error 500" {
		t.Errorf("Reason = %q, want %q", stats.Failures[0].Reason, "Server error 500")
	}
}

func TestFetch_RateLimitExhausted(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(7, "en", testutil.NewRateLimitResponse())

	c, _, _ := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	_, err := c.Fetch(context.Background(), stats, 7, dye.LanguageEnglish)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Expected ErrRetryExhausted, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fetchErr.Class != ErrorClassRateLimit {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassRateLimit)
	}
	if fetchErr.Reason != "Rate limit" {
		t.Errorf("Reason = %q, want %q", fetchErr.Reason, "Rate limit")
	}
	if fetchErr.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", fetchErr.Attempts)
	}
	// Fetch alone does not touch the failure list.
	if stats.Failed() {
		t.Errorf("Failures = %v, want none", stats.Failures)
	}
}

func TestFetchName_MixedRetryableErrorsShareAttempts(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(3, "ja",
		testutil.NewServerErrorResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewServerErrorResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewNameResponse(3, "never reached"),
	)

	c, _, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	if _, ok := c.FetchName(context.Background(), stats, 3, dye.LanguageJapanese); ok {
		t.Fatal("FetchName() succeeded, want failure after shared retry budget")
	}
	if stats.Requests != 4 {
		t.Errorf("Requests = %d, want 4", stats.Requests)
	}
	if len(*backoffs) != 3 {
		t.Errorf("backoffs = %v, want 3 entries", *backoffs)
	}
	if stats.Failures[0].Reason != "Rate limit" {
		t.Errorf("Reason = %q, want %q", stats.Failures[0].Reason, "Rate limit")
	}
}

func TestFetchName_MissingNameField(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(9, "en", testutil.NewMissingNameResponse(9))
	mock.SetName(9, "de", "")

	c, _, _ := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	for _, lang := range []dye.Language{dye.LanguageEnglish, dye.LanguageGerman} {
		if _, ok := c.FetchName(context.Background(), stats, 9, lang); ok {
			t.Errorf("FetchName(%s) succeeded, want missing name failure", lang)
		}
	}

	if stats.Requests != 2 {
		t.Errorf("Requests = %d, want 2", stats.Requests)
	}
	if stats.Successes != 0 {
		t.Errorf("Successes = %d, want 0", stats.Successes)
	}
	for _, f := range stats.Failures {
		if f.Reason != "Missing Name field" {
			t.Errorf("Reason = %q, want %q", f.Reason, "Missing Name field")
		}
	}
}

func TestFetchName_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	c, _, _ := newTestClient(t, server.URL+testutil.ItemPath)
	stats := &Stats{}

	_, err := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Class != ErrorClassMissingName {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassMissingName)
	}
	if stats.Requests != 1 {
		t.Errorf("Requests = %d, want 1", stats.Requests)
	}
}

func TestFetchName_ClientErrorNoRetry(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(1, "en", testutil.MockResponse{StatusCode: http.StatusForbidden})

	c, _, backoffs := newTestClient(t, mock.BaseURL())
	stats := &Stats{}

	if _, ok := c.FetchName(context.Background(), stats, 1, dye.LanguageEnglish); ok {
		t.Fatal("FetchName() succeeded, want failure")
	}
	if got := mock.GetItemRequestCount(1, "en"); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if len(*backoffs) != 0 {
		t.Errorf("backoffs = %v, want none", *backoffs)
	}
	if stats.Failures[0].Reason != "HTTP 403 Forbidden" {
		t.Errorf("Reason = %q, want %q", stats.Failures[0].Reason, "HTTP 403 Forbidden")
	}
}

func TestFetchName_TimeoutRetriedWithoutBackoff(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(1, "en", testutil.NewSlowResponse(1, "Snow White", 300*time.Millisecond))

	pacer := &countingPacer{}
	cfg := DefaultConfig("TestApp/1.0.0")
	cfg.BaseURL = mock.BaseURL()
	cfg.Pacer = pacer
	cfg.Timeout = 30 * time.Millisecond
	cfg.MaxRetries = 2

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	slept := 0
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept++
		return nil
	}

	stats := &Stats{}
	_, fetchErr := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)

	var fe *FetchError
	if !errors.As(fetchErr, &fe) {
		t.Fatalf("Expected *FetchError, got %v", fetchErr)
	}
	if fe.Class != ErrorClassTimeout {
		t.Errorf("Class = %q, want %q", fe.Class, ErrorClassTimeout)
	}
	if fe.Reason != "Timeout" {
		t.Errorf("Reason = %q, want Timeout", fe.Reason)
	}
	if stats.Requests != 3 {
		t.Errorf("Requests = %d, want 3", stats.Requests)
	}
	if pacer.waits != 3 {
		t.Errorf("pacer waits = %d, want 3", pacer.waits)
	}
	if slept != 0 {
		t.Errorf("slept %d times, timeouts should retry without backoff", slept)
	}
}

func TestFetchName_SlowBodyRetriedAsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(`{"fields":{"Name":"Snow White"}}`))
	}))
	defer server.Close()

	pacer := &countingPacer{}
	cfg := DefaultConfig("TestApp/1.0.0")
	cfg.BaseURL = server.URL + testutil.ItemPath
	cfg.Pacer = pacer
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 1

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	slept := 0
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept++
		return nil
	}

	stats := &Stats{}
	_, fetchErr := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)

	var fe *FetchError
	if !errors.As(fetchErr, &fe) {
		t.Fatalf("Expected *FetchError, got %v", fetchErr)
	}
	if fe.Class != ErrorClassTimeout {
		t.Errorf("Class = %q, want %q (err: %v)", fe.Class, ErrorClassTimeout, fe.Err)
	}
	if fe.Reason != "Timeout" {
		t.Errorf("Reason = %q, want Timeout", fe.Reason)
	}
	if stats.Requests != 2 {
		t.Errorf("Requests = %d, want 2", stats.Requests)
	}
	if slept != 0 {
		t.Errorf("slept %d times, timeouts should retry without backoff", slept)
	}
}

func TestFetchName_NameKeysMatchExactly(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		reason string
	}{
		{name: "exact keys", body: `{"row_id":1,"fields":{"Name":"Snow White"}}`, want: "Snow White"},
		{name: "upper case fields", body: `{"FIELDS":{"name":"lowercase"}}`, reason: "Missing Name field"},
		{name: "lower case name", body: `{"fields":{"name":"lowercase"}}`, reason: "Missing Name field"},
		{name: "name not a string", body: `{"fields":{"Name":42}}`, reason: "Missing Name field"},
		{name: "fields not an object", body: `{"fields":"Snow White"}`, reason: "Missing Name field"},
		{name: "null name", body: `{"fields":{"Name":null}}`, reason: "Missing Name field"},
		{name: "root not an object", body: `["Snow White"]`, reason: "Invalid response body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockXIVAPI()
			defer mock.Close()
			mock.SetResponses(1, "en", testutil.MockResponse{StatusCode: http.StatusOK, Body: tt.body})

			c, _, _ := newTestClient(t, mock.BaseURL())
			stats := &Stats{}

			name, ok := c.FetchName(context.Background(), stats, 1, dye.LanguageEnglish)
			if tt.reason == "" {
				if !ok || name != tt.want {
					t.Errorf("FetchName() = (%q, %v), want (%q, true)", name, ok, tt.want)
				}
				return
			}
			if ok {
				t.Fatalf("FetchName() = (%q, true), want failure", name)
			}
			if got := stats.Failures[0].Reason; got != tt.reason {
				t.Errorf("Reason = %q, want %q", got, tt.reason)
			}
			if stats.Requests != 1 {
				t.Errorf("Requests = %d, want 1", stats.Requests)
			}
		})
	}
}

func TestFetchName_TransportErrorNoRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL + testutil.ItemPath
	server.Close() // connection refused from here on

	c, _, backoffs := newTestClient(t, baseURL)
	stats := &Stats{}

	_, err := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassNetwork)
	}
	if fetchErr.Reason == "" {
		t.Error("Reason should carry the transport error description")
	}
	if stats.Requests != 1 {
		t.Errorf("Requests = %d, want 1", stats.Requests)
	}
	if len(*backoffs) != 0 {
		t.Errorf("backoffs = %v, want none", *backoffs)
	}
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetResponses(1, "en", testutil.NewServerErrorResponse())

	c, _, _ := newTestClient(t, mock.BaseURL())

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	stats := &Stats{}
	_, err := c.Fetch(ctx, stats, 1, dye.LanguageEnglish)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Class != ErrorClassCanceled {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassCanceled)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if stats.Requests != 1 {
		t.Errorf("Requests = %d, want 1", stats.Requests)
	}
}

func TestFetch_PacerErrorStopsBeforeRequest(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	mock.SetName(1, "en", "Snow White")

	c, pacer, _ := newTestClient(t, mock.BaseURL())
	pacer.err = context.Canceled

	stats := &Stats{}
	_, err := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if stats.Requests != 0 {
		t.Errorf("Requests = %d, want 0", stats.Requests)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("server saw %d requests, want 0", mock.GetRequestCount())
	}
}

func TestFetch_PacerBackendErrorIsNetwork(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()

	c, pacer, _ := newTestClient(t, mock.BaseURL())
	pacer.err = errors.New("claim request slot: dial tcp 127.0.0.1:6379: connect: connection refused")

	stats := &Stats{}
	_, err := c.Fetch(context.Background(), stats, 1, dye.LanguageEnglish)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassNetwork)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pacer.err = ctx.Err()
	_, err = c.Fetch(ctx, stats, 1, dye.LanguageEnglish)
	if !errors.As(err, &fetchErr) || fetchErr.Class != ErrorClassCanceled {
		t.Errorf("Expected canceled class for a cancelled run, got %v", err)
	}
	if stats.Requests != 0 {
		t.Errorf("Requests = %d, want 0", stats.Requests)
	}
}

func TestFetchName_RealPacerSpacing(t *testing.T) {
	mock := testutil.NewMockXIVAPI()
	defer mock.Close()
	for _, lang := range dye.Languages {
		mock.SetName(1, string(lang), "name-"+string(lang))
	}

	cfg := DefaultConfig("TestApp/1.0.0")
	cfg.BaseURL = mock.BaseURL()
	cfg.RequestInterval = 25 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	stats := &Stats{}
	start := time.Now()
	for _, lang := range dye.Languages {
		name, ok := c.FetchName(context.Background(), stats, 1, lang)
		if !ok || !strings.HasPrefix(name, "name-") {
			t.Fatalf("FetchName(%s) = (%q, %v)", lang, name, ok)
		}
	}
	elapsed := time.Since(start)

	// Four requests need at least three full intervals between them.
	if floor := 3*cfg.RequestInterval - 10*time.Millisecond; elapsed < floor {
		t.Errorf("4 paced requests took %v, want >= %v", elapsed, floor)
	}
}
