package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.AppointmentDurationMinutes != 30 {
		t.Errorf("expected default appointment duration 30, got %d", cfg.AppointmentDurationMinutes)
	}
	if cfg.HistoryTTL != 24*time.Hour {
		t.Errorf("expected default history TTL 24h, got %s", cfg.HistoryTTL)
	}
	if cfg.ClinicName != "Assort Medical Clinic" {
		t.Errorf("unexpected clinic name: %s", cfg.ClinicName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_TTL", "1h")
	t.Setenv("APPOINTMENT_DURATION_MINUTES", "45")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.HistoryTTL != time.Hour {
		t.Errorf("expected history TTL 1h, got %s", cfg.HistoryTTL)
	}
	if cfg.AppointmentDurationMinutes != 45 {
		t.Errorf("expected appointment duration 45, got %d", cfg.AppointmentDurationMinutes)
	}
}
