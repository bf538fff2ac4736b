// Package websocket provides an interactive query channel over WebSocket.
//
// Clients connect to /sparql/ws and send one JSON object per text frame,
// {"query": "..."} or {"q": "..."}. Every frame gets exactly one reply with
// the status the HTTP endpoint would have returned and either the upstream
// result or an error description.
package websocket
