// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApplicationsSubmitted counts cases opened by kind and source.
	ApplicationsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_applications_submitted_total",
		Help: "Total number of application cases opened",
	}, []string{"kind", "source"})

	// ApplicationsRejected counts submissions refused before a case was opened.
	ApplicationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_applications_rejected_total",
		Help: "Total number of submissions refused before review",
	}, []string{"reason"})

	// ApplicationsDecided counts terminal decisions by outcome.
	ApplicationsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_applications_decided_total",
		Help: "Total number of application decisions",
	}, []string{"status"})

	// BlacklistChanges counts blacklist mutations by operation.
	BlacklistChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_blacklist_changes_total",
		Help: "Total number of blacklist entries added, removed or expired",
	}, []string{"operation"})

	// AuditRecords counts recorded staff actions.
	AuditRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_audit_records_total",
		Help: "Total number of audit records by action",
	}, []string{"action"})

	// CollaboratorFailures counts best-effort Discord calls that failed.
	CollaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_collaborator_failures_total",
		Help: "Total number of failed best-effort collaborator calls by operation",
	}, []string{"operation"})

	// CollaboratorLatency records collaborator call latency.
	CollaboratorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "versize_collaborator_latency_seconds",
		Help:    "Collaborator call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versize_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PanelConnections is the gauge of live panel feed connections.
	PanelConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "versize_panel_connections",
		Help: "Number of active panel WebSocket connections",
	})

	// PanelBackpressureDrops counts feed messages dropped for slow clients.
	PanelBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versize_panel_backpressure_drops_total",
		Help: "Total number of panel feed messages dropped due to backpressure",
	})
)
