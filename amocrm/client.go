package amocrm

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

	"revreport/events"
	"revreport/models"

	log "github.com/sirupsen/logrus"
)

// ErrAuthFailed indicates the CRM rejected the bearer token. It is never
// retried and must abort the run before anything is sent.
var ErrAuthFailed = errors.New("amocrm authentication failed")

// Endpoints, also used as metric labels
const (
	EndpointLeads = "/api/v4/leads"
	EndpointUsers = "/api/v4/users"
)

const (
	// pageLimit is the maximum page size the AmoCRM v4 API accepts
	pageLimit = 250

	// maxPages guards against a server that keeps returning full pages forever
	maxPages = 1000

	defaultRetryDelay = 500 * time.Millisecond
)

// MetricsRecorder receives per-request outcomes. Implementations must be
// cheap; the client calls it on the request path.
type MetricsRecorder interface {
	RecordCRMRequest(endpoint, outcome string, seconds float64)
}

// Client is a read-only AmoCRM v4 API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	metrics    MetricsRecorder
	publisher  events.Publisher
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithMetrics attaches a metrics recorder for request outcomes
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithEventPublisher attaches an event publisher for failed requests
func WithEventPublisher(p events.Publisher) Option {
	return func(c *Client) {
		c.publisher = p
	}
}

// NewClient creates a client for the given API base URL and bearer token
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type leadJSON struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	ResponsibleUserID int64  `json:"responsible_user_id"`
	StatusID          int64  `json:"status_id"`
	PipelineID        int64  `json:"pipeline_id"`
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
}

type leadsPage struct {
	Embedded struct {
		Leads []leadJSON `json:"leads"`
	} `json:"_embedded"`
	Links struct {
		Next *struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

type userJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type usersPage struct {
	Embedded struct {
		Users []userJSON `json:"users"`
	} `json:"_embedded"`
	Links struct {
		Next *struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

// FetchLeads returns all leads created within [from, to). The server-side
// created_at filter is applied, and leads outside the window are dropped
// client-side as well in case the server ignores the filter.
func (c *Client) FetchLeads(ctx context.Context, from, to time.Time) ([]models.Lead, error) {
	var leads []models.Lead

	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("filter[created_at][from]", strconv.FormatInt(from.Unix(), 10))
		// the server filter is inclusive on both ends
		query.Set("filter[created_at][to]", strconv.FormatInt(to.Unix()-1, 10))
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(pageLimit))

		body, status, err := c.get(ctx, EndpointLeads, query)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNoContent {
			// AmoCRM answers 204 when there are no entities left
			break
		}

		var parsed leadsPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse leads response: %w", err)
		}
		if len(parsed.Embedded.Leads) == 0 {
			break
		}

		for _, raw := range parsed.Embedded.Leads {
			createdAt := time.Unix(raw.CreatedAt, 0)
			if createdAt.Before(from) || !createdAt.Before(to) {
				continue
			}
			leads = append(leads, models.Lead{
				ID:                raw.ID,
				Name:              raw.Name,
				Price:             raw.Price,
				ResponsibleUserID: raw.ResponsibleUserID,
				StatusID:          raw.StatusID,
				PipelineID:        raw.PipelineID,
				CreatedAt:         createdAt,
				UpdatedAt:         time.Unix(raw.UpdatedAt, 0),
			})
		}

		if len(parsed.Embedded.Leads) < pageLimit || parsed.Links.Next == nil {
			break
		}
	}

	log.WithFields(log.Fields{
		"leads":        len(leads),
		"window_start": from.Format(time.RFC3339),
		"window_end":   to.Format(time.RFC3339),
	}).Info("Fetched leads from CRM")

	return leads, nil
}

// FetchManagers returns all CRM users so manager IDs can be resolved to names
func (c *Client) FetchManagers(ctx context.Context) ([]models.Manager, error) {
	var managers []models.Manager

	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(pageLimit))

		body, status, err := c.get(ctx, EndpointUsers, query)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNoContent {
			break
		}

		var parsed usersPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse users response: %w", err)
		}
		if len(parsed.Embedded.Users) == 0 {
			break
		}

		for _, raw := range parsed.Embedded.Users {
			managers = append(managers, models.Manager{ID: raw.ID, Name: raw.Name})
		}

		if len(parsed.Embedded.Users) < pageLimit || parsed.Links.Next == nil {
			break
		}
	}

	return managers, nil
}

// get performs one GET with bounded retry for transient failures. Auth
// failures and other 4xx responses are permanent and returned immediately.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, int, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			log.WithFields(log.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
				"delay":    delay,
			}).Warn("Retrying CRM request")
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, status, err := c.doRequest(ctx, endpoint, query)
		if err == nil {
			return body, status, nil
		}
		if !isTransient(err) {
			return nil, status, err
		}
		lastErr = err
	}

	return nil, 0, fmt.Errorf("CRM request to %s failed after %d attempts: %w", endpoint, c.maxRetries+1, lastErr)
}

// transientError marks failures worth another attempt
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, int, error) {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build CRM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.recordRequest(ctx, endpoint, "network_error", elapsed, 0, err)
		return nil, 0, &transientError{err: fmt.Errorf("CRM request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.recordRequest(ctx, endpoint, "auth_error", elapsed, resp.StatusCode, ErrAuthFailed)
		return nil, resp.StatusCode, fmt.Errorf("%w (HTTP %d)", ErrAuthFailed, resp.StatusCode)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		err := fmt.Errorf("CRM returned HTTP %d", resp.StatusCode)
		c.recordRequest(ctx, endpoint, "server_error", elapsed, resp.StatusCode, err)
		return nil, resp.StatusCode, &transientError{err: err}

	case resp.StatusCode/100 != 2:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("CRM returned HTTP %d: %s", resp.StatusCode, string(snippet))
		c.recordRequest(ctx, endpoint, "client_error", elapsed, resp.StatusCode, err)
		return nil, resp.StatusCode, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordRequest(ctx, endpoint, "read_error", elapsed, resp.StatusCode, err)
		return nil, resp.StatusCode, &transientError{err: fmt.Errorf("failed to read CRM response: %w", err)}
	}

	if c.metrics != nil {
		c.metrics.RecordCRMRequest(endpoint, "success", elapsed)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) recordRequest(ctx context.Context, endpoint, outcome string, elapsed float64, status int, err error) {
	if c.metrics != nil {
		c.metrics.RecordCRMRequest(endpoint, outcome, elapsed)
	}
	if c.publisher != nil {
		c.publisher.Emit(ctx, events.CRMRequestFailedEvent{
			Endpoint:   endpoint,
			StatusCode: status,
			Err:        err,
		})
	}
}
