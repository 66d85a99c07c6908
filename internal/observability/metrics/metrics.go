package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for registration and booking flows.
type CallMetrics struct {
	registrationsTotal *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	bookingLatency     prometheus.Histogram
	extractionHits     *prometheus.CounterVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		registrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicmate",
			Subsystem: "registration",
			Name:      "outcomes_total",
			Help:      "Registration outcomes by status",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicmate",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicmate",
			Subsystem: "booking",
			Name:      "latency_seconds",
			Help:      "Latency of the atomic booking operation",
			Buckets:   prometheus.DefBuckets,
		}),
		extractionHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicmate",
			Subsystem: "extraction",
			Name:      "fallback_hits_total",
			Help:      "Fields recovered from the transcript by the extraction fallback",
		}, []string{"field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.registrationsTotal, m.bookingsTotal, m.bookingLatency, m.extractionHits)
	return m
}

// ObserveRegistration records a registration outcome: "registered",
// "updated", or "failed".
func (m *CallMetrics) ObserveRegistration(status string) {
	if m == nil {
		return
	}
	m.registrationsTotal.WithLabelValues(status).Inc()
}

// ObserveBooking records a booking outcome: "scheduled", "conflict",
// "unavailable", "unparseable", or "error".
func (m *CallMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.Observe(seconds)
}

// ObserveExtractionHit records one field recovered from the transcript.
func (m *CallMetrics) ObserveExtractionHit(field string) {
	if m == nil {
		return
	}
	m.extractionHits.WithLabelValues(field).Inc()
}
