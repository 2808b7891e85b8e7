package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Verification pipeline metrics
	verifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_verifications_total",
			Help: "Total number of verification requests by final state",
		},
		[]string{"status"}, // accepted, completed, failed, rejected
	)

	verifyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_outcomes_total",
			Help: "Completed verifications by decision category",
		},
		[]string{"category"},
	)

	emailsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idverify_emails_issued_total",
			Help: "Institutional addresses issued for approved requests",
		},
	)

	verifyConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "idverify_confidence_score",
			Help:    "Distribution of confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)
