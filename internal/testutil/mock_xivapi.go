// Package testutil provides testing utilities for the XIVAPI dye name fetcher.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"time"
)

// ItemPath is the sheet path the mock serves; BaseURL points at it.
const ItemPath = "/api/sheet/Item"

// MockResponse defines the behavior for one mock XIVAPI response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

type responseKey struct {
	itemID   int
	language string
}

// MockXIVAPI is a configurable mock XIVAPI server for testing.
// Responses are queued per (item, language); the last queued response repeats
// once the queue is drained. Unconfigured pairs answer 404.
type MockXIVAPI struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[responseKey][]MockResponse
	counts    map[responseKey]int

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastQuery         map[string]string
}

// NewMockXIVAPI creates a new mock XIVAPI server.
func NewMockXIVAPI() *MockXIVAPI {
	mock := &MockXIVAPI{
		responses: make(map[responseKey][]MockResponse),
		counts:    make(map[responseKey]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockXIVAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the Item sheet endpoint to configure the client with.
func (m *MockXIVAPI) BaseURL() string {
	return m.server.URL + ItemPath
}

// Close shuts down the mock server.
func (m *MockXIVAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockXIVAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
	m.counts = make(map[responseKey]int)
}

// SetResponses queues responses for an item and language.
func (m *MockXIVAPI) SetResponses(itemID int, language string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[responseKey{itemID, language}] = responses
}

// SetName configures a successful name response for an item and language.
func (m *MockXIVAPI) SetName(itemID int, language, name string) {
	m.SetResponses(itemID, language, NewNameResponse(itemID, name))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockXIVAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetItemRequestCount returns the number of requests for one item and language.
func (m *MockXIVAPI) GetItemRequestCount(itemID int, language string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[responseKey{itemID, language}]
}

// GetLastQuery returns the query parameters of the most recent request.
func (m *MockXIVAPI) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockXIVAPI) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

func (m *MockXIVAPI) handle(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.Atoi(path.Base(r.URL.Path))
	if err != nil || path.Dir(r.URL.Path) != ItemPath {
		http.NotFound(w, r)
		return
	}

	query := make(map[string]string)
	for key := range r.URL.Query() {
		query[key] = r.URL.Query().Get(key)
	}
	key := responseKey{itemID, query["language"]}

	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	m.LastQuery = query
	n := m.counts[key]
	m.counts[key] = n + 1
	queue := m.responses[key]
	m.mu.Unlock()

	if len(queue) == 0 {
		writeResponse(w, NewNotFoundResponse())
		return
	}
	if n >= len(queue) {
		n = len(queue) - 1
	}
	writeResponse(w, queue[n])
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewNameResponse creates a 200 OK sheet row response carrying name.
func NewNameResponse(itemID int, name string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"schema":"Item@1.0","row_id":%d,"fields":{"Name":%q}}`, itemID, name),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewMissingNameResponse creates a 200 OK response whose fields lack Name.
func NewMissingNameResponse(itemID int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"schema":"Item@1.0","row_id":%d,"fields":{}}`, itemID),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"code":404,"message":"not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"code":429,"message":"rate limited"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"code":500,"message":"internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewSlowResponse creates a name response delayed by delay, used to trigger
// client timeouts.
func NewSlowResponse(itemID int, name string, delay time.Duration) MockResponse {
	resp := NewNameResponse(itemID, name)
	resp.Delay = delay
	return resp
}
