// Package covmetrics instruments report decoding and class analysis.
package covmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jvmcov/jvmcov/pkg/execdata"
)

type Metrics struct {
	reportsRead     prometheus.Counter
	sessionsRead    prometheus.Counter
	executionsRead  prometheus.Counter
	probesRead      prometheus.Counter
	classesAnalyzed prometheus.Counter
	classesSkipped  prometheus.Counter
}

// New builds the metric set. A nil registerer yields working but
// unregistered metrics, so callers can always pass the result around.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reportsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_reports_read_total",
			Help: "Number of execution data files read.",
		}),
		sessionsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_sessions_read_total",
			Help: "Number of session info blocks decoded.",
		}),
		executionsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_executions_read_total",
			Help: "Number of execution data blocks decoded.",
		}),
		probesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_probes_read_total",
			Help: "Number of probes decoded across all execution data blocks.",
		}),
		classesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_classes_analyzed_total",
			Help: "Number of class files analyzed successfully.",
		}),
		classesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "jvmcov_classes_skipped_total",
			Help: "Number of class files skipped with a warning.",
		}),
	}
}

func (m *Metrics) ReportRead() {
	m.reportsRead.Inc()
}

func (m *Metrics) ClassesAnalyzed(n int) {
	m.classesAnalyzed.Add(float64(n))
}

func (m *Metrics) ClassesSkipped(n int) {
	m.classesSkipped.Add(float64(n))
}

type sessionVisitor struct {
	m    *Metrics
	next execdata.SessionVisitor
}

func (v sessionVisitor) VisitSession(info execdata.SessionInfo) error {
	v.m.sessionsRead.Inc()
	return v.next.VisitSession(info)
}

// SessionVisitor decorates next so that every decoded session is counted.
func (m *Metrics) SessionVisitor(next execdata.SessionVisitor) execdata.SessionVisitor {
	return sessionVisitor{m: m, next: next}
}

type executionVisitor struct {
	m    *Metrics
	next execdata.ExecutionVisitor
}

func (v executionVisitor) VisitExecution(data *execdata.ExecutionData) error {
	v.m.executionsRead.Inc()
	v.m.probesRead.Add(float64(len(data.Probes)))
	return v.next.VisitExecution(data)
}

// ExecutionVisitor decorates next so that every decoded execution data
// block and its probes are counted.
func (m *Metrics) ExecutionVisitor(next execdata.ExecutionVisitor) execdata.ExecutionVisitor {
	return executionVisitor{m: m, next: next}
}
