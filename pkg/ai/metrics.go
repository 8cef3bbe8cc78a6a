package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	modelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "englishmastery",
		Subsystem: "ai",
		Name:      "model_request_duration_seconds",
		Help:      "Duration of generative model requests",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider", "model"})

	modelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "englishmastery",
		Subsystem: "ai",
		Name:      "model_request_failures_total",
		Help:      "Number of generative model requests that failed in transport",
	}, []string{"provider", "model"})

	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "englishmastery",
		Subsystem: "ai",
		Name:      "evaluations_total",
		Help:      "Evaluations by mode and outcome",
	}, []string{"mode", "outcome"})

	evaluationScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "englishmastery",
		Subsystem: "ai",
		Name:      "evaluation_score",
		Help:      "Distribution of overall evaluation scores",
		Buckets:   []float64{29, 49, 69, 79, 89, 100},
	}, []string{"mode"})
)
