package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "guestbook"

	metricLabelHandler   = "handler"
	metricLabelStatus    = "status"
	metricLabelPersisted = "persisted"
	metricLabelResult    = "result"
)

var (
	// ServiceRequestCounter counts the number of requests per handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observes the duration of requests per handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to decode a request, run the repository operation and encode its response",
		metricLabelHandler, metricLabelStatus,
	)
	// NotesCreatedCounter counts accepted notes, split by durability
	NotesCreatedCounter = newCounterVec(
		"notes_created_count",
		"Number of accepted notes, labelled by whether they were durably stored",
		metricLabelPersisted,
	)
	// NotesDeletedCounter counts delete outcomes
	NotesDeletedCounter = newCounterVec(
		"notes_deleted_count",
		"Number of delete operations by outcome",
		metricLabelResult,
	)
	// ScanEntriesSkippedCounter counts objects skipped during prefix scans
	ScanEntriesSkippedCounter = newCounterVec(
		"scan_entries_skipped_count",
		"Number of stored objects that could not be fetched or parsed during a scan",
	)
	// AuthFailedCounter counts rejected password attempts
	AuthFailedCounter = newCounterVec(
		"auth_failed_count",
		"Number of rejected password attempts",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
