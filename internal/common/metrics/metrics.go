package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PromptCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_cache_lookups_total",
			Help: "Prompt cache lookups by cache space and result (hit, miss, expired, disabled)",
		},
		[]string{"cache", "result"},
	)

	PromptFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_fetches_total",
			Help: "Remote prompt fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	PromptFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_fallbacks_total",
			Help: "Prompt reads answered with the caller supplied fallback",
		},
		[]string{"kind", "error_code"},
	)

	ScoreSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_submissions_total",
			Help: "Score submissions by data type and outcome",
		},
		[]string{"data_type", "outcome"},
	)

	TransportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transport_request_duration_seconds",
			Help:    "Duration of requests to the prompt management API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status_class"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
