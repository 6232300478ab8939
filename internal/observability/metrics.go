// Package observability sets up OpenTelemetry tracing and holds the
// Prometheus collectors of the plan engine. Engine labels are small closed
// sets (plan type, AI status, outcome) so cardinality stays bounded.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	plansGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rehab_plans_generated_total",
			Help: "Plans persisted, by plan type and augmentation status.",
		},
		[]string{"plan_type", "ai_status"},
	)

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rehab_ai_gateway_requests_total",
			Help: "Augmentation calls that reached the gateway, by outcome.",
		},
		[]string{"outcome"},
	)

	gatewayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rehab_ai_gateway_duration_seconds",
			Help:    "Latency of augmentation calls.",
			Buckets: []float64{.1, .25, .5, 1, 2, 4, 6, 8, 10, 15},
		},
	)

	dedupLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rehab_dedup_cache_lookups_total",
			Help: "Dedup cache lookups by result (hit, miss, shared).",
		},
		[]string{"result"},
	)

	summaryRegenerations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rehab_summary_regenerations_total",
			Help: "Weekly adherence summaries recomputed.",
		},
	)
)

func init() {
	prometheus.MustRegister(plansGenerated, gatewayRequests, gatewayDuration, dedupLookups, summaryRegenerations)
}

// ObservePlan counts a persisted plan.
func ObservePlan(planType, aiStatus string) {
	plansGenerated.WithLabelValues(planType, aiStatus).Inc()
}

// ObserveGateway records one gateway call.
func ObserveGateway(outcome string, latency time.Duration) {
	gatewayRequests.WithLabelValues(outcome).Inc()
	if latency > 0 {
		gatewayDuration.Observe(latency.Seconds())
	}
}

// ObserveDedup counts a dedup cache lookup.
func ObserveDedup(result string) {
	dedupLookups.WithLabelValues(result).Inc()
}

// ObserveSummaryRegeneration counts a recomputed summary.
func ObserveSummaryRegeneration() {
	summaryRegenerations.Inc()
}
