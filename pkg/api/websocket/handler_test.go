package websocket

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/sparqlproxy/internal/application/proxy"
	"github.com/aescanero/sparqlproxy/pkg/adapters/sparql"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const askTrue = `{"head":{},"boolean":true}`

func dial(t *testing.T, upstreamURL string) *websocket.Conn {
	t.Helper()

	client, err := sparql.NewClient(&sparql.Config{Endpoint: upstreamURL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	h := NewHandler(proxy.NewService(client, nil, zap.NewNop()), zap.NewNop())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/sparql/ws", h.HandleQueryStream)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sparql/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) Reply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	var reply Reply
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestQueryStream(t *testing.T) {
	var mu sync.Mutex
	var received []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, r.URL.Query().Get("query"))
		mu.Unlock()
		_, _ = io.WriteString(w, askTrue)
	}))
	defer upstream.Close()

	conn := dial(t, upstream.URL)

	reply := roundTrip(t, conn, `{"query":"ASK {}"}`)
	assert.Equal(t, http.StatusOK, reply.Status)
	assert.JSONEq(t, askTrue, string(reply.Result))
	assert.Empty(t, reply.Error)

	reply = roundTrip(t, conn, `{"q":"ASK { ?s ?p ?o }"}`)
	assert.Equal(t, http.StatusOK, reply.Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ASK {}", "ASK { ?s ?p ?o }"}, received)
}

func TestQueryStreamBadFrame(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	}))
	defer upstream.Close()

	conn := dial(t, upstream.URL)

	for _, frame := range []string{`{}`, `not json`, `["ASK {}"]`} {
		reply := roundTrip(t, conn, frame)
		assert.Equal(t, http.StatusBadRequest, reply.Status, frame)
		assert.Equal(t, "no query provided", reply.Error)
		assert.Nil(t, reply.Result)
	}
}

func TestQueryStreamUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	conn := dial(t, upstream.URL)

	reply := roundTrip(t, conn, `{"query":"SELECT * WHERE {}"}`)
	assert.Equal(t, http.StatusInternalServerError, reply.Status)
	assert.Contains(t, reply.Error, "500")
}
