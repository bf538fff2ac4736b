// Package proxy implements the query forwarding path of the SPARQL proxy.
//
// The service resolves the query text from a request (URL parameters or a
// JSON body, key "query" with "q" as fallback), submits it once to the
// upstream endpoint and maps the outcome to a status code and JSON payload:
//   - 200 with the upstream body, unmodified
//   - 400 with {"error": "no query provided"}
//   - 500 with {"error": <description>} for any upstream failure
package proxy
