package objective

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smbo_objective_evaluations_total",
		Help: "Total number of objective evaluations, by objective.",
	}, []string{"objective"})

	evaluationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smbo_objective_evaluation_seconds",
		Help:    "Wall time of one objective evaluation (cross-validation included).",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"objective"})
)
