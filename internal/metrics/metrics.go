// Package metrics registers the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters tracked across the review pipeline.
type Metrics struct {
	DocumentsIngested prometheus.Counter
	InvalidRecords    prometheus.Counter
	ClaimConflicts    prometheus.Counter
	Approvals         prometheus.Counter
	Rejections        prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DocumentsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrum_documents_ingested_total",
			Help: "Documents created from upstream extraction output.",
		}),
		InvalidRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrum_invalid_records_total",
			Help: "Ingested records whose validation report contained errors.",
		}),
		ClaimConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrum_claim_conflicts_total",
			Help: "Claim attempts lost to another reviewer's assignment.",
		}),
		Approvals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrum_approvals_total",
			Help: "Documents approved by reviewers.",
		}),
		Rejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrum_rejections_total",
			Help: "Documents rejected by reviewers.",
		}),
	}
}
