package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aescanero/sparqlproxy/internal/application/proxy"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same origin policy as the CORS middleware
	},
}

// Reply is sent for every query frame
type Reply struct {
	Status int             `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Handler handles WebSocket connections
type Handler struct {
	service *proxy.Service
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(service *proxy.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleQueryStream answers query frames until the client disconnects
func (h *Handler) HandleQueryStream(c *gin.Context) {
	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMessageSize)

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	ctx := c.Request.Context()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply := h.answer(ctx, proxy.QueryFromBody(data))

		payload, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("failed to marshal reply", zap.Error(err))
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Error("failed to write message", zap.Error(err))
			return
		}
	}
}

func (h *Handler) answer(ctx context.Context, query string) Reply {
	result, err := h.service.Execute(ctx, proxy.SourceWebSocket, query)
	if err != nil {
		return Reply{Status: proxy.StatusCode(err), Error: err.Error()}
	}
	return Reply{Status: http.StatusOK, Result: result}
}
