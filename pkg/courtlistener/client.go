// Package courtlistener provides the rate-limited CourtListener/RECAP HTTP
// client with error classification and bounded retries.
package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/farleyknight/legal-outcome-prediction/pkg/logging"
	"github.com/farleyknight/legal-outcome-prediction/pkg/ratelimit"
)

// Prometheus metrics for transport operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recap_requests_total",
		Help: "Total CourtListener requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recap_request_duration_seconds",
		Help:    "CourtListener request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recap_errors_total",
		Help: "Total CourtListener errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recap_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recap_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recap_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// DefaultBaseURL is the production CourtListener API host.
const DefaultBaseURL = "https://www.courtlistener.com"

// apiPrefix is the REST API root under the base URL.
const apiPrefix = "/api/rest/v4"

// Client is the CourtListener API client. All requests pass through the
// shared rate gate before hitting the network.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	gate       *ratelimit.Gate
	retry      RetryConfig
	sleep      sleeper
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the CourtListener instance (default: DefaultBaseURL).
	BaseURL string

	// Token is the API token, sent as "Authorization: Token <token>".
	Token string

	// Gate is the shared send gate. Required so the one-per-service budget
	// stays explicit; use ratelimit.NewGate(ratelimit.DefaultInterval) for
	// the standard 1 req/s spacing.
	Gate *ratelimit.Gate

	// Retry configures backoff behavior. Zero value uses defaults.
	Retry RetryConfig

	// Timeout is the per-request HTTP timeout (default: 30s).
	Timeout time.Duration
}

// New creates a new CourtListener client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("api token is required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("rate gate is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		gate:       cfg.Gate,
		retry:      cfg.Retry,
		sleep:      clockSleeper{},
		logger:     logging.NewLogger("courtlistener"),
	}, nil
}

// SearchDockets queries the docket search endpoint for one court and docket
// number candidate. Returns the verbatim response body.
func (c *Client) SearchDockets(ctx context.Context, court, docketNumber string) ([]byte, error) {
	q := url.Values{}
	q.Set("court", court)
	q.Set("docket_number", docketNumber)
	return c.Get(ctx, c.baseURL+apiPrefix+"/dockets/?"+q.Encode())
}

// DocketEntries fetches the first page of the entry listing for a docket.
// Continuation pages are fetched by passing the page's next URL to Get.
func (c *Client) DocketEntries(ctx context.Context, docketID int64) ([]byte, error) {
	q := url.Values{}
	q.Set("docket", strconv.FormatInt(docketID, 10))
	q.Set("order_by", "entry_number")
	return c.Get(ctx, c.baseURL+apiPrefix+"/docket-entries/?"+q.Encode())
}

// CheckConnection probes the API root to verify the token and connectivity.
func (c *Client) CheckConnection(ctx context.Context) error {
	_, err := c.Get(ctx, c.baseURL+apiPrefix+"/")
	if errors.Is(err, ErrNotFound) {
		// A reachable host that answers at all means auth worked.
		return nil
	}
	return err
}

// Get performs a rate-limited GET with bounded retries and returns the
// verbatim response body. Error semantics:
//   - *AuthError for 401 (fatal, do not retry)
//   - ErrNotFound for 404 (valid negative outcome, do not retry)
//   - *StatusError for other non-retryable 4xx
//   - *TransientError once retryable failures exhaust MaxAttempts
//   - ErrContextCancelled (wrapped) if the context ends during a wait
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	endpoint := endpointLabel(rawURL)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	lastClass := ErrorClassNetwork

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		body, retryAfter, err := c.doOnce(ctx, rawURL, endpoint)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return body, nil
		}

		// Terminal outcomes pass straight through.
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !shouldRetry(statusErr.Class) {
			return nil, err
		}

		lastErr = err
		lastClass = classOf(err)

		if attempt >= c.retry.MaxAttempts {
			break
		}

		delay := withJitter(nextBackoff(attempt, c.retry))
		if retryAfter > delay {
			delay = retryAfter
		}

		retriesTotal.WithLabelValues(string(lastClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(delay.Seconds())

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		if err := c.sleep.Sleep(ctx, delay); err != nil {
			// Cancellation during backoff abandons the remaining attempts.
			return nil, &TransientError{
				Attempts: attempt,
				Class:    lastClass,
				Err:      fmt.Errorf("%w: %v", ErrContextCancelled, err),
			}
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	c.logger.Warn().
		Str("endpoint", endpoint).
		Str("error_class", string(lastClass)).
		Int("max_attempts", c.retry.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, &TransientError{Attempts: c.retry.MaxAttempts, Class: lastClass, Err: lastErr}
}

// doOnce issues a single HTTP request. retryAfter carries the server's 429
// hint when present.
func (c *Client) doOnce(ctx context.Context, rawURL, endpoint string) (body []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, 0, &StatusError{Class: ErrorClassNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return nil, 0, &StatusError{Class: ErrorClassNetwork, Message: err.Error()}
		}
		return data, 0, nil

	case resp.StatusCode == http.StatusUnauthorized:
		errorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
		c.logger.Error().Str("endpoint", endpoint).Msg("API token rejected")
		return nil, 0, &AuthError{StatusCode: resp.StatusCode, Message: resp.Status}

	case resp.StatusCode == http.StatusNotFound:
		// Not a failure: the service answered and the record is absent.
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, rawURL)

	default:
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("CourtListener request error")

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter = parseRetryAfter(resp.Header)
		}
		return nil, retryAfter, &StatusError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}
}

// classOf extracts the error class from a transport error.
func classOf(err error) ErrorClass {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Class
	}
	return ErrorClassNetwork
}

// parseRetryAfter reads the Retry-After header as a second count.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// endpointLabel reduces a URL to its path for metric labels, keeping query
// parameters (and their cardinality) out of the label set.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Path
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// setSleeper replaces the backoff suspension mechanism (for testing).
func (c *Client) setSleeper(s sleeper) {
	c.sleep = s
}
