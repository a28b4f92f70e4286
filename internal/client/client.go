// Package client talks to a running study-sync server: the gRPC
// PostDetailService for snapshot lookups and the HTTP API for occurrence
// ingress and health.
package client

import (
	"time"
)

// Options configures a client connection.
type Options struct {
	// Token is sent as "Authorization: Bearer <token>" when non-empty.
	Token string
	// TLS enables transport security for gRPC using the system roots.
	TLS bool
	// Timeout bounds each HTTP request. Zero means no limit.
	Timeout time.Duration
}
