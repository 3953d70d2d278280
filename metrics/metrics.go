// Package metrics exposes prometheus instrumentation for the proof service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BuildsTotal counts SMT builds.
	BuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smt_builds_total",
		Help: "Number of sparse Merkle trees built.",
	})

	// BuildDuration tracks how long builds take.
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smt_build_duration_seconds",
		Help:    "Time spent building sparse Merkle trees.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// ProofsGeneratedTotal counts generated membership and non-membership
	// proofs.
	ProofsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smt_proofs_generated_total",
		Help: "Number of Merkle proofs generated.",
	})

	// VerificationsTotal counts batch verifications by outcome.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smt_verifications_total",
		Help: "Number of batch verifications by outcome.",
	}, []string{"outcome"})
)

// Outcome labels for VerificationsTotal.
const (
	OutcomeCompliant    = "compliant"
	OutcomeNonCompliant = "non_compliant"
	OutcomeMismatch     = "root_mismatch"
	OutcomeMalformed    = "malformed"
)

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
