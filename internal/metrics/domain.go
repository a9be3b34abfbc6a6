package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ComponentUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "saasadmin_component_up",
		Help: "Whether a probed component answered its last health check (1) or not (0).",
	}, []string{"component"})

	ComponentLatency = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "saasadmin_component_latency_seconds",
		Help: "Latency of the last health check per component.",
	}, []string{"component"})

	SLABreachedTickets = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "saasadmin_sla_breached_tickets",
		Help: "Open support tickets idle longer than the configured SLA.",
	})

	AuditDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saasadmin_audit_dropped_total",
		Help: "Audit entries dropped because the write buffer was full.",
	})

	SchedulerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saasadmin_scheduler_runs_total",
		Help: "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})
)

// MustRegister registers the domain collectors with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(ComponentUp, ComponentLatency, SLABreachedTickets, AuditDropped, SchedulerRuns)
}
