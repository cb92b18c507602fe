// Package client is the gBizINFO REST client: one explicitly owned HTTP
// session that paces requests, authenticates with the static API token,
// classifies failures and optionally serves detail lookups from Redis.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/gbiz-collector/pkg/cache"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for gBizINFO requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbiz_requests_total",
		Help: "Total gBizINFO requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gbiz_request_duration_seconds",
		Help:    "gBizINFO request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbiz_errors_total",
		Help: "Total gBizINFO errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://info.gbiz.go.jp/hojin"

	// TokenHeader carries the API token.
	TokenHeader = "X-hojinInfo-api-token"

	// maxErrorBody bounds how much of a failed response is kept in errors.
	maxErrorBody = 300

	endpointSearch = "search"
	endpointDetail = "detail"
)

// Client talks to the gBizINFO API. It is not safe for concurrent use; the
// collector drives it from a single flow of control.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root without the /v1 suffix.
	BaseURL string

	// Token is the static API token (REQUIRED).
	Token string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per request.
	Timeout time.Duration

	// Interval is the minimum spacing between requests; 0 disables pacing.
	Interval time.Duration

	// Cache, when set, stores detail responses in Redis.
	Cache *cache.Manager

	// CacheTTL is how long cached detail responses stay valid.
	CacheTTL time.Duration
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig(token string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Token:     token,
		UserAgent: "gbiz-collector/0.1.0",
		Timeout:   60 * time.Second,
		Interval:  ratelimit.DefaultInterval,
		CacheTTL:  cache.DefaultTTL,
	}
}

// New creates a new gBizINFO client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("api token is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Interval < 0 {
		return nil, fmt.Errorf("interval must be >= 0 (got %s)", cfg.Interval)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger := log.With().Str("component", "gbiz-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: ratelimit.NewLimiter(cfg.Interval, logger),
		cache:   cfg.Cache,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logger,
	}

	logger.Debug().
		Str("base_url", c.baseURL).
		Dur("interval", c.limiter.Interval()).
		Bool("cache", c.cache != nil).
		Msg("gBizINFO client ready")

	return c, nil
}

// Do paces, authenticates and executes req. A response is returned only for
// 2xx statuses; anything else becomes an *APIError with the body closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req.Header.Set(TokenHeader, c.config.Token)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", req.URL.String()).
		Msg("Executing gBizINFO request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &APIError{
			Endpoint:   req.URL.Path,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if errClass := classifyStatus(resp.StatusCode); errClass != "" {
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("gBizINFO request error")

		msg := resp.Status
		if len(snippet) > 0 {
			msg += ": " + strings.TrimSpace(string(snippet))
		}
		return nil, &APIError{
			Endpoint:   req.URL.Path,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    msg,
		}
	}

	return resp, nil
}

// FetchPage requests one page of the search endpoint for a prefecture. A 204
// or an empty result is returned as an empty slice.
func (c *Client) FetchPage(ctx context.Context, filter hojin.FilterSpec, prefecture string, page int) ([]hojin.Record, error) {
	query := url.Values{}
	query.Set("corporate_type", filter.CorporateType)
	query.Set("prefecture", prefecture)
	query.Set("limit", strconv.Itoa(filter.PageSize))
	query.Set("page", strconv.Itoa(page))
	if flag := filter.ExistFlag.Param(); flag != "" {
		query.Set("exist_flg", flag)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/hojin?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[hojin.Record]
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return env.Infos, nil
}

// Detail fetches the full record for one corporate number, consulting the
// cache first when one is configured.
func (c *Client) Detail(ctx context.Context, corporateNumber string) (*hojin.Detail, error) {
	number := strings.TrimSpace(corporateNumber)
	path := "/v1/hojin/" + url.PathEscape(number)

	var body []byte
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cache.DetailKey(number))
		switch {
		case err == nil:
			c.logger.Debug().Str("corporate_number", number).Msg("Detail served from cache")
			body = entry.Data
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("corporate_number", number).Msg("Cache get error")
		}
	}

	if body == nil {
		fetched, err := c.fetchDetail(ctx, path, number)
		if err != nil {
			return nil, err
		}
		body = fetched
	}

	var env envelope[hojin.Detail]
	if err := json.Unmarshal(body, &env); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{Endpoint: path, StatusCode: http.StatusOK, ErrorClass: ErrorClassDecode, Message: "decode response", Err: err}
	}
	if len(env.Infos) == 0 {
		return nil, fmt.Errorf("corporate_number %s: %w", number, ErrNoRecord)
	}

	d := env.Infos[0]
	got := strings.TrimSpace(d.CorporateNumber)
	switch {
	case got == "":
		d.CorporateNumber = number
	case got != number:
		return nil, fmt.Errorf("requested %s, got %s: %w", number, got, ErrNumberMismatch)
	default:
		d.CorporateNumber = got
	}
	return &d, nil
}

// fetchDetail returns the raw detail body, storing it in the cache on success.
func (c *Client) fetchDetail(ctx context.Context, path, number string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, fmt.Errorf("corporate_number %s: %w", number, ErrNoRecord)
	}

	if c.cache == nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &APIError{Endpoint: path, StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
		}
		return body, nil
	}

	entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
	if err != nil {
		return nil, &APIError{Endpoint: path, StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
	}
	if err := c.cache.Set(ctx, cache.DetailKey(number), entry); err != nil {
		c.logger.Warn().Err(err).Str("corporate_number", number).Msg("Failed to cache detail")
	}
	return entry.Data, nil
}

// Close releases pooled connections held by the session.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// envelope is the JSON wrapper of every gBizINFO response.
type envelope[T any] struct {
	Infos []T `json:"hojin-infos"`
}

// decode reads a JSON envelope; 204 yields an empty envelope.
func decode[T any](resp *http.Response, env *envelope[T]) error {
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Endpoint:   resp.Request.URL.Path,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		}
	}
	return nil
}

// endpointLabel keeps metric cardinality bounded: detail paths carry the
// corporate number, which must not become a label value.
func endpointLabel(path string) string {
	if strings.HasSuffix(strings.TrimRight(path, "/"), "/v1/hojin") {
		return endpointSearch
	}
	return endpointDetail
}
