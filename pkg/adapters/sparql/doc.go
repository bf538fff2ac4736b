// Package sparql provides a client for the SPARQL 1.1 protocol query
// operation.
//
// The client submits a query string to a single endpoint, asks for JSON
// results and hands back the response body untouched. Failures are reported
// as *TransportError, *StatusError or *DecodeError.
package sparql
