package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_requests_total",
		Help: "Total number of requests evaluated by the admission engine",
	})
	admittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_admitted_total",
		Help: "Total number of requests admitted",
	})
	deniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_denied_total",
		Help: "Total number of requests denied, by reason",
	}, []string{"reason"})
	burstsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_bursts_detected_total",
		Help: "Total number of burst escalations",
	})
	failOpenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_fail_open_total",
		Help: "Total number of requests admitted because an internal check failed",
	})
	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_alerts_total",
		Help: "Total number of security alerts raised, by severity",
	}, []string{"severity"})
	activeBlocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warden_active_blocks",
		Help: "Current number of blocked identifiers",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(requestsTotal, admittedTotal, deniedTotal, burstsTotal, failOpenTotal, alertsTotal, activeBlocks)
}

// IncRequest increments the evaluated requests counter.
func IncRequest() { requestsTotal.Inc() }

// IncAdmitted increments the admitted requests counter.
func IncAdmitted() { admittedTotal.Inc() }

// IncDenied increments the denied requests counter for a reason.
func IncDenied(reason string) { deniedTotal.WithLabelValues(reason).Inc() }

// IncBurst increments the burst escalations counter.
func IncBurst() { burstsTotal.Inc() }

// IncFailOpen increments the fail-open admissions counter.
func IncFailOpen() { failOpenTotal.Inc() }

// IncAlert increments the raised alerts counter for a severity.
func IncAlert(severity string) { alertsTotal.WithLabelValues(severity).Inc() }

// SetActiveBlocks records the current block list size.
func SetActiveBlocks(n int) { activeBlocks.Set(float64(n)) }
