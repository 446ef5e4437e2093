// Package metrics exposes Prometheus counters for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "hubbridge"
)

// Operation label values for SubmissionFailures.
const (
	OperationImport = "import"
	OperationUpdate = "update"
)

var ReportsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "datatap",
	Name:      "reports_processed_total",
	Help:      "Number of compliance reports walked",
})

var MessagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "datatap",
	Name:      "messages_skipped_total",
	Help:      "Number of Data Tap messages ignored because they carry no report",
})

var DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "datatap",
	Name:      "decode_errors_total",
	Help:      "Number of Data Tap lines that could not be decoded",
})

var AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "datatap",
	Name:      "auth_failures_total",
	Help:      "Number of Data Tap requests rejected by authentication",
})

var FindingsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "securityhub",
	Name:      "findings_submitted_total",
	Help:      "Number of findings accepted for import, by compliance status",
}, []string{"compliance"})

var StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "securityhub",
	Name:      "status_updates_total",
	Help:      "Number of finding identifiers sent in workflow status updates, by target status",
}, []string{"workflow"})

var SubmissionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "securityhub",
	Name:      "submission_failures_total",
	Help:      "Number of failed Security Hub calls, by operation",
}, []string{"operation"})
