package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// AcceptHeader asks for SPARQL JSON results, falling back to plain JSON
const AcceptHeader = "application/sparql-results+json, application/json;q=0.9"

// maxErrorBody caps how much of an error response is kept in StatusError
const maxErrorBody = 512

// Client submits queries to one SPARQL endpoint
type Client struct {
	rawURL     string
	endpoint   *url.URL
	method     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds SPARQL client configuration
type Config struct {
	Endpoint string
	// Method is GET (query in the URL) or POST (form-encoded body)
	Method  string
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a new SPARQL client
func NewClient(cfg *Config) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint: %w", err)
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported method: %s", cfg.Method)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		rawURL:     cfg.Endpoint,
		endpoint:   endpoint,
		method:     method,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Endpoint returns the endpoint URL exactly as configured
func (c *Client) Endpoint() string {
	return c.rawURL
}

// Query sends query to the endpoint once and returns the JSON body as received.
func (c *Client) Query(ctx context.Context, query string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint(), Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: c.Endpoint(), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Endpoint:   c.Endpoint(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{ContentType: resp.Header.Get("Content-Type"), Err: ErrInvalidJSON}
	}

	if ce := c.logger.Check(zap.DebugLevel, "received SPARQL response"); ce != nil {
		fields := []zap.Field{zap.Int("bytes", len(body))}
		if rows := gjson.GetBytes(body, "results.bindings.#"); rows.Exists() {
			fields = append(fields, zap.Int64("rows", rows.Int()))
		}
		if answer := gjson.GetBytes(body, "boolean"); answer.Exists() {
			fields = append(fields, zap.Bool("boolean", answer.Bool()))
		}
		ce.Write(fields...)
	}

	return json.RawMessage(body), nil
}

func (c *Client) newRequest(ctx context.Context, query string) (*http.Request, error) {
	var req *http.Request
	var err error

	switch c.method {
	case http.MethodPost:
		form := url.Values{"query": {query}}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		u := *c.endpoint
		params := u.Query()
		params.Set("query", query)
		u.RawQuery = params.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
	}

	req.Header.Set("Accept", AcceptHeader)
	return req, nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
