package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	submissionsSubmitted  prometheus.Counter
	submissionsGraded     prometheus.Counter
	submissionEventsTotal *prometheus.CounterVec
	aiSuggestionsBySource *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assess_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assess_submissions_submitted_total",
			Help: "Total number of submissions finalized by students.",
		})

		submissionsGraded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assess_submissions_graded_total",
			Help: "Total number of submissions graded by teachers.",
		})

		submissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_submission_events_published_total",
			Help: "Total number of submission lifecycle events published.",
		}, []string{"event"})

		aiSuggestionsBySource = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_grading_suggestions_total",
			Help: "Total number of essay score suggestions served, by source.",
		}, []string{"source"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsSubmitted,
			submissionsGraded,
			submissionEventsTotal,
			aiSuggestionsBySource,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionsSubmitted exposes the counter for finalized submissions.
func SubmissionsSubmitted() prometheus.Counter {
	RegisterMetrics()
	return submissionsSubmitted
}

// SubmissionsGraded exposes the counter for graded submissions.
func SubmissionsGraded() prometheus.Counter {
	RegisterMetrics()
	return submissionsGraded
}

// SubmissionEventsPublished exposes the counter for published lifecycle
// events, labelled by event name.
func SubmissionEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsTotal
}

// AISuggestionsTotal exposes the suggestion counter for one source,
// "ai" or "heuristic".
func AISuggestionsTotal(source string) prometheus.Counter {
	RegisterMetrics()
	return aiSuggestionsBySource.WithLabelValues(source)
}
