package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assortclinic/clinic-mate/internal/booking"
	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

// CatalogHandler serves the read-only specialty/doctor catalog and slot
// listings.
type CatalogHandler struct {
	store  store.Store
	engine *booking.Engine
	logger *logging.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(st store.Store, engine *booking.Engine, logger *logging.Logger) *CatalogHandler {
	return &CatalogHandler{store: st, engine: engine, logger: logger}
}

// ListSpecialties handles GET /specialties requests.
func (h *CatalogHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.store.ListSpecialties(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		http.Error(w, "failed to list specialties", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]store.Specialty{"specialties": specialties})
}

// ListDoctors handles GET /doctors requests, optionally filtered by
// ?specialty_id=.
func (h *CatalogHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		doctors []store.Doctor
		err     error
	)
	if raw := r.URL.Query().Get("specialty_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			http.Error(w, "invalid specialty_id", http.StatusBadRequest)
			return
		}
		doctors, err = h.store.ListDoctorsBySpecialty(ctx, id)
	} else {
		doctors, err = h.store.ListDoctors(ctx)
	}
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]store.Doctor{"doctors": doctors})
}

// DoctorSlots handles GET /doctors/{doctorID}/slots requests, listing the
// next open slots from ?from= (RFC 3339, default now).
func (h *CatalogHandler) DoctorSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	if _, err := h.store.GetDoctor(r.Context(), doctorID); err != nil {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}

	from := time.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			http.Error(w, "invalid from time", http.StatusBadRequest)
			return
		}
		from = parsed
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, perr := strconv.Atoi(raw)
		if perr != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	slots, err := h.engine.NextAvailableSlots(r.Context(), doctorID, from, limit)
	if err != nil {
		h.logger.Error("failed to list slots", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]booking.Slot{"slots": slots})
}
