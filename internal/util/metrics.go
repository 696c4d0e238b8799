package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received_total",
		Help: "Total number of provider events accepted for processing",
	}, []string{"event_type"})

	EventsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_duplicate_total",
		Help: "Total number of provider events rejected as duplicates",
	})

	EventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Total number of events moved to PROCESSED",
	}, []string{"event_type"})

	EventsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_skipped_total",
		Help: "Total number of events left NEW by a processor",
	}, []string{"reason"})

	OperationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finance_operations_created_total",
		Help: "Total number of ledger operations created",
	}, []string{"type"})

	EnqueueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_enqueue_failures_total",
		Help: "Total number of post-commit enqueue failures",
	})

	TaskOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_tasks_total",
		Help: "Total number of task attempts by outcome",
	}, []string{"outcome"})

	TaskRetryDelay = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_task_retry_delay_seconds",
		Help:    "Countdown computed for rescheduled tasks",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	TaskProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_task_processing_latency_seconds",
		Help:    "Latency of event processing attempts",
		Buckets: prometheus.DefBuckets,
	})

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
