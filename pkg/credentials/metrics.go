package credentials

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for credential store operations.
var (
	// TokenSaves counts tokens written to the store by backend.
	TokenSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_credential_saves_total",
		Help: "Total tokens saved to the credential store by backend",
	}, []string{"backend"})

	// TokenClears counts tokens removed from the store by backend.
	TokenClears = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_credential_clears_total",
		Help: "Total tokens cleared from the credential store by backend",
	}, []string{"backend"})

	// TokenReads counts reads by backend and outcome (hit or miss).
	TokenReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_credential_reads_total",
		Help: "Total credential store reads by backend and outcome",
	}, []string{"backend", "outcome"})

	// StoreErrors counts failed store operations by backend and operation.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_credential_errors_total",
		Help: "Total credential store operation errors by backend and operation",
	}, []string{"backend", "operation"})
)
