package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aescanero/sparqlproxy/pkg/adapters/sparql"
	"go.uber.org/zap"
)

// Query sources used for logging and metrics
const (
	SourceHTTP      = "http"
	SourceWebSocket = "websocket"
)

// OutcomeBadRequest labels queries rejected before reaching the upstream
const OutcomeBadRequest = "bad_request"

// ErrNoQuery is returned when no query text could be resolved from a request
var ErrNoQuery = errors.New("no query provided")

// Querier submits a query to the upstream endpoint
type Querier interface {
	Query(ctx context.Context, query string) (json.RawMessage, error)
	Endpoint() string
}

// MetricsRecorder receives per-query measurements
type MetricsRecorder interface {
	IncQueries(source, outcome string)
	ObserveUpstreamDuration(outcome string, duration time.Duration)
	IncInFlight()
	DecInFlight()
}

// ErrorPayload is the body of every error response
type ErrorPayload struct {
	Error string `json:"error"`
}

// Service forwards queries to the upstream SPARQL endpoint
type Service struct {
	client  Querier
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewService creates a new proxy service. metrics may be nil.
func NewService(client Querier, metrics MetricsRecorder, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:  client,
		metrics: metrics,
		logger:  logger,
	}
}

// UpstreamURL returns the endpoint queries are forwarded to
func (s *Service) UpstreamURL() string {
	return s.client.Endpoint()
}

// QueryFromParams resolves the query from URL parameters
func QueryFromParams(params url.Values) string {
	if q := params.Get("query"); q != "" {
		return q
	}
	return params.Get("q")
}

// QueryFromBody resolves the query from a JSON object body. An absent body,
// a parse failure or a document that is not an object all resolve as an
// empty mapping.
func QueryFromBody(body []byte) string {
	var fields map[string]any
	if len(bytes.TrimSpace(body)) == 0 {
		fields = map[string]any{}
	} else if err := json.Unmarshal(body, &fields); err != nil {
		fields = map[string]any{}
	}
	return queryFromFields(fields)
}

func queryFromFields(fields map[string]any) string {
	if q, ok := fields["query"].(string); ok && q != "" {
		return q
	}
	if q, ok := fields["q"].(string); ok {
		return q
	}
	return ""
}

// Execute forwards query to the upstream endpoint exactly once
func (s *Service) Execute(ctx context.Context, source, query string) (json.RawMessage, error) {
	if query == "" {
		s.metrics.IncQueries(source, OutcomeBadRequest)
		return nil, ErrNoQuery
	}

	s.logger.Info("proxying query",
		zap.String("source", source),
		zap.String("upstream", s.client.Endpoint()))
	s.logger.Debug("query text", zap.String("query", query))

	s.metrics.IncInFlight()
	start := time.Now()
	result, err := s.client.Query(ctx, query)
	duration := time.Since(start)
	s.metrics.DecInFlight()

	outcome := sparql.Outcome(err)
	s.metrics.IncQueries(source, outcome)
	s.metrics.ObserveUpstreamDuration(outcome, duration)

	if err != nil {
		s.logger.Error("upstream query failed",
			zap.String("source", source),
			zap.String("outcome", outcome),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	return result, nil
}

// Handle runs query and maps the result to a status code and JSON payload
func (s *Service) Handle(ctx context.Context, source, query string) (int, json.RawMessage) {
	result, err := s.Execute(ctx, source, query)
	if err != nil {
		return StatusCode(err), errorPayload(err)
	}
	return http.StatusOK, result
}

// StatusCode maps an Execute error to the HTTP status reported to callers
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorPayload(err error) json.RawMessage {
	data, marshalErr := json.Marshal(ErrorPayload{Error: err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"error":"internal error"}`)
	}
	return data
}

type nopMetrics struct{}

func (nopMetrics) IncQueries(string, string) {}
func (nopMetrics) ObserveUpstreamDuration(string, time.Duration) {}
func (nopMetrics) IncInFlight() {}
func (nopMetrics) DecInFlight() {}
