// Package http provides the HTTP API of the SPARQL proxy.
//
// The HTTP server exposes endpoints for:
//   - Query forwarding (GET and POST /sparql)
//   - Health checks (GET /)
//   - Prometheus metrics
//   - The WebSocket query channel, when one is attached
package http
