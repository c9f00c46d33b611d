// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBlocked = "blocked"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_uploads_total",
			Help: "Total number of document uploads by slot and outcome",
		},
		[]string{"slot", "outcome"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_submission_duration_seconds",
			Help:    "Duration of the upload and create phases of a submission",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_step_transitions_total",
			Help: "Form step transitions attempted, by source, target and outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	SubmissionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_submissions_active",
			Help: "Number of submissions currently in flight",
		},
	)
)
