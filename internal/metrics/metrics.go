// Package metrics exposes the Prometheus instrumentation shared by the
// gateway and the collection layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WritesTotal counts gateway mutations by namespace and outcome.
	WritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventflow_writes_total",
		Help: "Gateway write operations by namespace and outcome.",
	}, []string{"namespace", "outcome"})

	// SnapshotsDelivered counts snapshots materialized for subscribers.
	SnapshotsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventflow_snapshots_delivered_total",
		Help: "Collection snapshots delivered to subscribers.",
	}, []string{"namespace"})
)

// ObserveWrite records one mutation outcome.
func ObserveWrite(namespace string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	WritesTotal.WithLabelValues(namespace, outcome).Inc()
}
