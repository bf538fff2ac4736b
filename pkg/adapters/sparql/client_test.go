package sparql

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectAll = "SELECT ?s WHERE { ?s ?p ?o } LIMIT 1"

const resultsJSON = `{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://example.org/foodpriceontology#Rice"}}]}}`

func newTestClient(t *testing.T, endpoint, method string) *Client {
	t.Helper()
	c, err := NewClient(&Config{Endpoint: endpoint, Method: method, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestQueryGet(t *testing.T) {
	var gotQuery, gotAccept, gotDefaultGraph string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.Query().Get("query")
		gotDefaultGraph = r.URL.Query().Get("default-graph-uri")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = io.WriteString(w, resultsJSON)
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL+"/ds/query?default-graph-uri=urn:g", "GET")
	body, err := c.Query(context.Background(), selectAll)
	require.NoError(t, err)

	assert.Equal(t, selectAll, gotQuery)
	assert.Equal(t, "urn:g", gotDefaultGraph)
	assert.Equal(t, AcceptHeader, gotAccept)
	assert.Equal(t, resultsJSON, string(body))
}

func TestQueryPost(t *testing.T) {
	var gotQuery, gotContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		assert.NoError(t, err)
		gotQuery = form.Get("query")
		_, _ = io.WriteString(w, `{"head":{},"boolean":true}`)
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL, "post")
	body, err := c.Query(context.Background(), "ASK {}")
	require.NoError(t, err)

	assert.Equal(t, "ASK {}", gotQuery)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.JSONEq(t, `{"head":{},"boolean":true}`, string(body))
}

func TestQueryStatusError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Parse error: Encountered \" <EOF>", http.StatusBadRequest)
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL, "GET")
	_, err := c.Query(context.Background(), "SELECT")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Parse error")
	assert.Equal(t, OutcomeStatusError, Outcome(err))
}

func TestQueryDecodeError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>Fuseki</html>")
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL, "GET")
	_, err := c.Query(context.Background(), selectAll)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "text/html", decodeErr.ContentType)
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, OutcomeDecodeError, Outcome(err))
}

func TestQueryEmptyBodyIsDecodeError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL, "GET")
	_, err := c.Query(context.Background(), selectAll)
	assert.Equal(t, OutcomeDecodeError, Outcome(err))
}

func TestQueryTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := upstream.URL
	upstream.Close()

	c := newTestClient(t, endpoint, "GET")
	_, err := c.Query(context.Background(), selectAll)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.NotEmpty(t, err.Error())
	assert.Equal(t, OutcomeTransportError, Outcome(err))
}

func TestQueryTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	c, err := NewClient(&Config{Endpoint: upstream.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Query(context.Background(), selectAll)
	assert.Equal(t, OutcomeTransportError, Outcome(err))
}

func TestQueryExactlyOneAttempt(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	c := newTestClient(t, upstream.URL, "GET")
	_, err := c.Query(context.Background(), selectAll)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClientRejectsUnknownMethod(t *testing.T) {
	_, err := NewClient(&Config{Endpoint: "http://localhost:3030/ds/query", Method: "DELETE"})
	assert.Error(t, err)
}

func TestOutcomeNil(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
}
