// Package client provides the HTTP client for the upstream gallery
// API with retry, error classification, and request metrics. It is the
// producer collaborator the cache manager invokes on a miss; the cache
// layer itself never talks to the network except through this package.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// Prometheus metrics for gallery API operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_api_requests_total",
		Help: "Total gallery API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gallery_api_request_duration_seconds",
		Help:    "Gallery API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_api_errors_total",
		Help: "Total gallery API errors by class",
	}, []string{"class"})
)

// Client is the upstream gallery API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the gallery API, e.g. "https://api.gallery.example".
	BaseURL string

	// APIToken authenticates requests (sent as a Bearer token).
	APIToken string

	// PropertyID scopes requests to one website property when set.
	PropertyID int64

	// Timeout per request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, apiToken string) Config {
	return Config{
		BaseURL:  baseURL,
		APIToken: apiToken,
		Timeout:  30 * time.Second,
	}
}

// New creates a new gallery API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "gallery-client").Logger()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger,
	}, nil
}

// getJSON performs a GET with retry and error classification, returning
// the raw response body.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	reqURL := c.config.BaseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.config.APIToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Gallery API request error")
			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
		}
		return nil
	}

	err := retryWithBackoff(ctx, attempt, func(err error) ErrorClass {
		if apiErr, ok := err.(*APIError); ok {
			return apiErr.ErrorClass
		}
		return ErrorClassNetwork
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// caseQueryValues converts a gallery.Query to URL query parameters.
func (c *Client) caseQueryValues(q gallery.Query) url.Values {
	values := url.Values{}
	for name, value := range q.Params() {
		values.Set(name, value)
	}
	if c.config.PropertyID > 0 && values.Get("property_id") == "" {
		values.Set("property_id", strconv.FormatInt(c.config.PropertyID, 10))
	}
	return values
}

// FetchCasesRaw fetches one page of a case listing as raw JSON. This is
// the payload shape the cache stores.
func (c *Client) FetchCasesRaw(ctx context.Context, q gallery.Query) ([]byte, error) {
	return c.getJSON(ctx, "/api/v1/cases", c.caseQueryValues(q))
}

// FetchCases fetches and decodes one page of a case listing.
func (c *Client) FetchCases(ctx context.Context, q gallery.Query) (*gallery.CaseList, error) {
	body, err := c.FetchCasesRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	var list gallery.CaseList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode case list: %w", err)
	}
	return &list, nil
}

// FetchCaseRaw fetches a single case by ID as raw JSON, bypassing list
// pagination entirely.
func (c *Client) FetchCaseRaw(ctx context.Context, caseID int64) ([]byte, error) {
	return c.getJSON(ctx, "/api/v1/cases/"+strconv.FormatInt(caseID, 10), nil)
}

// FetchCase fetches and decodes a single case by ID.
func (c *Client) FetchCase(ctx context.Context, caseID int64) (*gallery.CaseRecord, error) {
	body, err := c.FetchCaseRaw(ctx, caseID)
	if err != nil {
		return nil, err
	}
	var record gallery.CaseRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode case %d: %w", caseID, err)
	}
	return &record, nil
}

// FetchSidebar fetches the procedure navigation sidebar payload.
func (c *Client) FetchSidebar(ctx context.Context, propertyID int64) ([]byte, error) {
	values := url.Values{}
	if propertyID > 0 {
		values.Set("property_id", strconv.FormatInt(propertyID, 10))
	}
	return c.getJSON(ctx, "/api/v1/sidebar", values)
}

// FetchCarousel fetches the carousel payload for a procedure.
func (c *Client) FetchCarousel(ctx context.Context, procedureID int64) ([]byte, error) {
	values := url.Values{}
	if procedureID > 0 {
		values.Set("procedure_id", strconv.FormatInt(procedureID, 10))
	}
	return c.getJSON(ctx, "/api/v1/carousel", values)
}

// FetchFilters fetches the filter taxonomy payload.
func (c *Client) FetchFilters(ctx context.Context) ([]byte, error) {
	return c.getJSON(ctx, "/api/v1/filters", nil)
}

// FetchPage fetches a single listing page and reports the total page
// count, satisfying the pagination batch fetcher contract.
func (c *Client) FetchPage(ctx context.Context, q gallery.Query, pageNum int) ([]byte, int, error) {
	q.Page = pageNum
	body, err := c.FetchCasesRaw(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	var meta struct {
		TotalPages int `json:"total_pages"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, 0, fmt.Errorf("decode page meta: %w", err)
	}
	if meta.TotalPages < 1 {
		meta.TotalPages = 1
	}
	return body, meta.TotalPages, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
