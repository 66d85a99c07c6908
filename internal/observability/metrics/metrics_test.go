package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCallMetricsObserve(t *testing.T) {
	m := NewCallMetrics(nil)
	m.ObserveRegistration("registered")
	m.ObserveBooking("scheduled", 0.02)
	m.ObserveBooking("conflict", 0.01)
	m.ObserveExtractionHit("name")
}

func TestCallMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCallMetrics(reg)
	m.ObserveRegistration("failed")
}

func TestCallMetricsNilSafe(t *testing.T) {
	var m *CallMetrics
	m.ObserveRegistration("registered")
	m.ObserveBooking("scheduled", 0.1)
	m.ObserveExtractionHit("dob")
}
