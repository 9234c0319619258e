// Package testutil provides testing utilities for the remote record client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

const apiPrefix = "/api/rest/v4"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCourtListener is a configurable mock record server for testing.
type MockCourtListener struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	searches map[string]MockResponse // court|docket_number
	entries  map[string]MockResponse // docketID|cursor

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockCourtListener creates a new mock record server.
func NewMockCourtListener() *MockCourtListener {
	mock := &MockCourtListener{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		searches: make(map[string]MockResponse),
		entries:  make(map[string]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		// Custom handlers win over the fixture maps.
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case apiPrefix + "/dockets/":
			mock.serveSearch(w, r)
		case apiPrefix + "/docket-entries/":
			mock.serveEntries(w, r)
		default:
			mock.defaultHandler(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCourtListener) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCourtListener) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCourtListener) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCourtListener) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockCourtListener) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSearchResponse configures the docket search fixture for one court and
// docket number. Unconfigured combinations get a 404.
func (m *MockCourtListener) SetSearchResponse(court, docketNumber string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[court+"|"+docketNumber] = resp
}

// SetEntryPage configures one page of the entry listing for a docket. The
// first page has cursor ""; continuation pages are addressed by the cursor
// values embedded in next links (see EntriesURL).
func (m *MockCourtListener) SetEntryPage(docketID int64, cursor string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fmt.Sprintf("%d|%s", docketID, cursor)] = resp
}

// EntriesURL builds an absolute entry-listing URL for use as a next link in
// a paginated fixture.
func (m *MockCourtListener) EntriesURL(docketID int64, cursor string) string {
	q := url.Values{}
	q.Set("docket", fmt.Sprintf("%d", docketID))
	q.Set("cursor", cursor)
	return m.server.URL + apiPrefix + "/docket-entries/?" + q.Encode()
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCourtListener) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockCourtListener) serveSearch(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("court") + "|" + r.URL.Query().Get("docket_number")

	m.mu.RLock()
	resp, ok := m.searches[key]
	m.mu.RUnlock()

	if !ok {
		writeResponse(w, NewNotFoundResponse())
		return
	}
	writeResponse(w, resp)
}

func (m *MockCourtListener) serveEntries(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("docket") + "|" + r.URL.Query().Get("cursor")

	m.mu.RLock()
	resp, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		writeResponse(w, NewNotFoundResponse())
		return
	}
	writeResponse(w, resp)
}

// defaultHandler answers unconfigured paths, including the API root probe.
func (m *MockCourtListener) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
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

// NewHealthyResponse creates a standard 200 OK JSON response.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not found."}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewAuthErrorResponse creates a 401 Unauthorized response.
func NewAuthErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"detail": "Invalid token."}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"detail": "Request was throttled."}`,
		Headers: map[string]string{
			"Retry-After":  retryAfter,
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
