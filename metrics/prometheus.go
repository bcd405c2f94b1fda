package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Подсчет результатов
	MatchesScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_matches_scored_total",
			Help: "Total number of match results applied, by kind (set, correction)",
		},
		[]string{"kind"},
	)

	PredictionsScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_predictions_scored_total",
			Help: "Total number of predictions rescored, by result status",
		},
		[]string{"result"},
	)

	ScoringConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictor_scoring_conflicts_total",
			Help: "Total number of version conflicts retried while scoring",
		},
	)

	// Фоновые задачи
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_sweep_runs_total",
			Help: "Total number of lifecycle sweep runs",
		},
		[]string{"sweep", "status"},
	)

	SweepItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_sweep_items_total",
			Help: "Total number of predictions touched by lifecycle sweeps",
		},
		[]string{"sweep", "outcome"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictor_sweep_duration_seconds",
			Help:    "Duration of lifecycle sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	// Экспорт
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_exports_total",
			Help: "Total number of CSV exports",
		},
		[]string{"type", "archived"},
	)

	LiveClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "predictor_live_clients",
			Help: "Number of connected live clients, by room kind (dashboard, tournament)",
		},
		[]string{"kind"},
	)
)
