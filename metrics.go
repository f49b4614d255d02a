package cutoutsched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors the scheduler updates. A nil
// *Metrics disables metric updates entirely, so the scheduler can run
// without a registry.
type Metrics struct {
	ActiveJobs         prometheus.Gauge
	JobsLaunched       prometheus.Counter
	JobsCompleted      prometheus.Counter
	JobsFailed         prometheus.Counter
	AdmissionsDeferred prometheus.Counter
	Loops              prometheus.Counter
}

// NewMetrics creates and registers the scheduler collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cutoutsched_active_jobs",
			Help: "Number of cutout jobs currently active.",
		}),
		JobsLaunched: factory.NewCounter(prometheus.CounterOpts{
			Name: "cutoutsched_jobs_launched_total",
			Help: "Cutout jobs handed to the launcher.",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "cutoutsched_jobs_completed_total",
			Help: "Cutout jobs retired with a COMPLETED marker.",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "cutoutsched_jobs_failed_total",
			Help: "Cutout jobs retired with a FAILED marker.",
		}),
		AdmissionsDeferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "cutoutsched_admissions_deferred_total",
			Help: "Admission decisions deferred because of a beam conflict.",
		}),
		Loops: factory.NewCounter(prometheus.CounterOpts{
			Name: "cutoutsched_loops_total",
			Help: "Scheduling loops executed.",
		}),
	}
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.ActiveJobs.Set(float64(n))
}

func (m *Metrics) jobLaunched() {
	if m == nil {
		return
	}
	m.JobsLaunched.Inc()
}

func (m *Metrics) jobCompleted() {
	if m == nil {
		return
	}
	m.JobsCompleted.Inc()
}

func (m *Metrics) jobFailed() {
	if m == nil {
		return
	}
	m.JobsFailed.Inc()
}

func (m *Metrics) admissionDeferred() {
	if m == nil {
		return
	}
	m.AdmissionsDeferred.Inc()
}

func (m *Metrics) loopDone() {
	if m == nil {
		return
	}
	m.Loops.Inc()
}
