package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinereads/internal/services"
)

const (
	defaultBaseURL     = "https://api.hardcover.app/v1/graphql"
	defaultHTTPTimeout = 15 * time.Second
	defaultPerPage     = 10
)

// searchQuery is the GraphQL document used for all book searches. The
// results field is jsonb on the server side, so the payload shape is
// re-decoded client-side.
const searchQuery = `query SearchBooks($query: String!, $perPage: Int!, $page: Int!) {
  search(query: $query, query_type: "books", per_page: $perPage, page: $page, sort: "activities_count:desc") {
    results
    error
  }
}`

// Searcher is the narrow search surface consumed by the metadata
// orchestrator. The concrete Client satisfies it; tests substitute fakes.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// Config captures the runtime settings required to talk to Hardcover.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	PerPage        int
}

// Client wraps the Hardcover GraphQL search API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Hardcover client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "hardcover", "new", "api key required", nil)
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
			PerPage:        cfg.PerPage,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.PerPage <= 0 {
		client.cfg.PerPage = defaultPerPage
	}
	return client, nil
}

// StatusError carries the HTTP status of a failed API call alongside any
// Retry-After hint, so callers can distinguish throttling from hard failures.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hardcover request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Search runs one book search and returns the usable candidate documents.
// An empty slice with a nil error means the API answered but found nothing;
// deciding whether that is a miss belongs to the resolver, not the client.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "hardcover", "search", "query required", nil)
	}

	payload := map[string]any{
		"query": searchQuery,
		"variables": map[string]any{
			"query":   query,
			"perPage": c.cfg.PerPage,
			"page":    1,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "hardcover", "search", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "hardcover", "search", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	candidates, err := decodeSearchResponse(body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "hardcover", "search", "decode response", err)
	}
	return candidates, nil
}

// classifyStatus maps HTTP failures onto the shared error taxonomy so the
// orchestrator can pick a retry path without inspecting status codes.
func classifyStatus(status int, body []byte, retryAfterHeader string) error {
	statusErr := &StatusError{
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	if d, ok := parseRetryAfter(retryAfterHeader); ok {
		statusErr.RetryAfter = d
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "hardcover", "search", "authentication rejected", statusErr)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "hardcover", "search", "rate limited", statusErr)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return services.Wrap(services.ErrTimeout, "hardcover", "search", "upstream timeout", statusErr)
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "hardcover", "search", "server error", statusErr)
	default:
		return services.Wrap(services.ErrValidation, "hardcover", "search", "request rejected", statusErr)
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "hardcover", "search", "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "hardcover", "search", "request timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "hardcover", "search", "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "hardcover", "search", "transport error", err)
}

func decodeSearchResponse(body []byte) ([]Candidate, error) {
	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil || envelope.Data.Search == nil {
		return nil, errors.New("response missing search data")
	}
	if msg := strings.TrimSpace(envelope.Data.Search.Error); msg != "" {
		return nil, fmt.Errorf("search error: %s", msg)
	}

	raw := envelope.Data.Search.Results
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	// jsonb round-trips through the API as either an object or a
	// JSON-encoded string of that object.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode results string: %w", err)
		}
		raw = json.RawMessage(inner)
	}
	var results searchResults
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	candidates := make([]Candidate, 0, len(results.Hits))
	for _, hit := range results.Hits {
		if candidate, ok := hit.Document.candidate(); ok {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, nil
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
