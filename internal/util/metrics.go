package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeductionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deduction_runs_total",
		Help: "Total number of sale deduction runs processed",
	})

	DeductionsPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deduction_runs_partial_total",
		Help: "Total number of deduction runs that completed with failures",
	})

	IngredientDeductionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingredient_deductions_total",
		Help: "Total number of ingredient deductions applied",
	})

	IngredientFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingredient_deduction_failures_total",
		Help: "Total number of ingredient deductions that failed",
	}, []string{"reason"})

	MatchResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingredient_match_results_total",
		Help: "Ingredient match resolutions by tier",
	}, []string{"tier"})

	UnverifiedConversionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unverified_unit_conversions_total",
		Help: "Conversions that fell back to an unverified 1:1 factor",
	})

	StockUpdateConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_update_conflicts_total",
		Help: "Conditional stock updates that lost to a concurrent writer",
	})

	DeductionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deduction_run_latency_seconds",
		Help:    "Latency of full sale deduction runs",
		Buckets: prometheus.DefBuckets,
	})

	StockAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_alerts_total",
		Help: "Stock alerts raised by severity",
	}, []string{"severity"})

	ReorderRecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reorder_recommendations_total",
		Help: "Reorder recommendations generated by urgency",
	}, []string{"urgency"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
