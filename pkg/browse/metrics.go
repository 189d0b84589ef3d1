package browse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the pagination controller.
var (
	browseFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_browse_fetches_total",
		Help: "Total page fetches by outcome (success, cancelled, unauthorized, failed, superseded)",
	}, []string{"outcome"})

	browseResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_browse_resets_total",
		Help: "Total query resets and refreshes",
	})

	browseItemsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_browse_items_loaded",
		Help: "Items currently accumulated for the active query",
	})
)
