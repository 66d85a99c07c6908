// Package router assembles the HTTP routes for the API service.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/assortclinic/clinic-mate/internal/api/handlers"
)

// Config holds router configuration.
type Config struct {
	Calls          *handlers.CallsHandler
	Catalog        *handlers.CatalogHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/calls", func(r chi.Router) {
		r.Post("/", cfg.Calls.StartCall)
		r.Post("/{callID}/operations/{operation}", cfg.Calls.Operation)
		r.Post("/{callID}/turns", cfg.Calls.AddTurn)
		r.Post("/{callID}/end", cfg.Calls.EndCall)
	})

	r.Get("/specialties", cfg.Catalog.ListSpecialties)
	r.Get("/doctors", cfg.Catalog.ListDoctors)
	r.Get("/doctors/{doctorID}/slots", cfg.Catalog.DoctorSlots)

	return r
}
