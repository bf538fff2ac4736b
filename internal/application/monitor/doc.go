// Package monitor periodically probes the upstream SPARQL endpoint.
//
// The health monitor sends a trivial ASK query every interval and publishes
// the result to metrics and to any registered status sinks, such as the gRPC
// health service. It has no influence on query forwarding or on the HTTP
// health route.
package monitor
