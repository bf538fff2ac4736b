// Package grpc exposes the standard gRPC health service.
//
// The empty service name always reports SERVING while the process is up.
// UpstreamService follows the upstream monitor's last probe.
package grpc
