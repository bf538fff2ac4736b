package http

import (
	"io"
	"net/http"

	"github.com/aescanero/sparqlproxy/internal/application/proxy"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	FusekiURL string `json:"fuseki_url"`
}

// handleHealth reports static status and the configured upstream. It never
// contacts the upstream.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		FusekiURL: s.service.UpstreamURL(),
	})
}

// handleQueryGet forwards the query from the query or q URL parameter
func (s *Server) handleQueryGet(c *gin.Context) {
	s.forward(c, proxy.QueryFromParams(c.Request.URL.Query()))
}

// handleQueryPost forwards the query from a JSON body
func (s *Server) handleQueryPost(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.logger.Warn("failed to read request body",
				zap.String("request_id", c.GetString(requestIDKey)),
				zap.Error(err))
		} else {
			body = data
		}
	}

	s.forward(c, proxy.QueryFromBody(body))
}

func (s *Server) forward(c *gin.Context, query string) {
	status, payload := s.service.Handle(c.Request.Context(), proxy.SourceHTTP, query)
	c.Data(status, "application/json", payload)
}
