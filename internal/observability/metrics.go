package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "englishmastery"

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	recordingLatency       prometheus.Histogram
	recordingRejectedTotal *prometheus.CounterVec
	recordingUploadsTotal  *prometheus.CounterVec
	quotaRejectedTotal     prometheus.Counter
	achievementsTotal      *prometheus.CounterVec
	eventsPublishedTotal   *prometheus.CounterVec
	rateLimitedTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the HTTP layer and platform services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		recordingLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "upload_seconds",
			Help:      "Time spent validating and storing presentation recordings.",
			Buckets:   prometheus.DefBuckets,
		})

		recordingRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "rejected_total",
			Help:      "Recording uploads rejected, by reason.",
		}, []string{"reason"})

		recordingUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recording",
			Name:      "uploads_total",
			Help:      "Recording uploads stored, by media kind.",
		}, []string{"kind"})

		quotaRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "quota_rejected_total",
			Help:      "Evaluation requests refused because the learner exhausted the daily quota.",
		})

		achievementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_awarded_total",
			Help:      "Achievements awarded to learners, by code.",
		}, []string{"code"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published to the message bus.",
		}, []string{"subject", "outcome"})

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by the per-learner rate limiter, by scope.",
		}, []string{"scope"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			recordingLatency,
			recordingRejectedTotal,
			recordingUploadsTotal,
			quotaRejectedTotal,
			achievementsTotal,
			eventsPublishedTotal,
			rateLimitedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// RecordingLatency exposes the recording upload histogram.
func RecordingLatency() prometheus.Histogram {
	RegisterMetrics()
	return recordingLatency
}

// RecordingRejected exposes the rejected recording counter.
func RecordingRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return recordingRejectedTotal
}

// RecordingUploads exposes the stored recording counter.
func RecordingUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return recordingUploadsTotal
}

// QuotaRejected exposes the daily quota rejection counter.
func QuotaRejected() prometheus.Counter {
	RegisterMetrics()
	return quotaRejectedTotal
}

// AchievementsAwarded exposes the achievement counter.
func AchievementsAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return achievementsTotal
}

// EventsPublished exposes the event publication counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// RateLimited exposes the rate limiter rejection counter.
func RateLimited() *prometheus.CounterVec {
	RegisterMetrics()
	return rateLimitedTotal
}
