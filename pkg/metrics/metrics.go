// Package metrics provides the centralized Prometheus registry reference for
// the catalog client. All metrics are defined in their respective packages
// (api, browse, credentials) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - catalog_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - catalog_errors_total{kind} (Counter): Errors by kind (unauthorized, cancelled, request_failed)
//
// Retry Metrics (pkg/api):
//   - catalog_retries_total{endpoint} (Counter): Retry attempts by endpoint
//   - catalog_retry_backoff_seconds{endpoint} (Histogram): Backoff duration by endpoint
//   - catalog_retry_exhausted_total{endpoint} (Counter): Requests that exhausted max retries
//
// Controller Metrics (pkg/browse):
//   - catalog_browse_fetches_total{outcome} (Counter): Page fetches by outcome
//     (success, cancelled, unauthorized, failed, superseded)
//   - catalog_browse_resets_total (Counter): Query resets and refreshes
//   - catalog_browse_items_loaded (Gauge): Items accumulated for the active query
//
// Credential Store Metrics (pkg/credentials):
//   - catalog_credential_saves_total{backend} (Counter): Tokens saved by backend
//   - catalog_credential_clears_total{backend} (Counter): Tokens cleared by backend
//   - catalog_credential_reads_total{backend, outcome} (Counter): Reads by backend and hit/miss
//   - catalog_credential_errors_total{backend, operation} (Counter): Store operation errors
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(catalog_errors_total[5m])
//
//   # Superseded Response Rate (search churn)
//   rate(catalog_browse_fetches_total{outcome="superseded"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
//
//   # Credential Miss Rate (sessions needing login)
//   rate(catalog_credential_reads_total{outcome="miss"}[5m])
