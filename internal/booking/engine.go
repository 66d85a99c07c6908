// Package booking resolves spoken specialty and doctor references against the
// catalog, finds open slots, and books them through the store's atomic
// booking operation.
package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

var tracer = otel.Tracer("clinicmate.internal.booking")

// synonyms maps lay phrasing to catalog specialty names. Checked only after
// direct name matching fails, so "cardiology" never routes through "heart".
var synonyms = map[string]string{
	"ent":       "Otolaryngology",
	"ear":       "Otolaryngology",
	"nose":      "Otolaryngology",
	"throat":    "Otolaryngology",
	"heart":     "Cardiology",
	"cardiac":   "Cardiology",
	"eye":       "Ophthalmology",
	"eyes":      "Ophthalmology",
	"vision":    "Ophthalmology",
	"skin":      "Dermatology",
	"bone":      "Orthopedics",
	"bones":     "Orthopedics",
	"joint":     "Orthopedics",
	"joints":    "Orthopedics",
	"brain":     "Neurology",
	"nerve":     "Neurology",
	"nerves":    "Neurology",
	"headache":  "Neurology",
	"lung":      "Pulmonology",
	"lungs":     "Pulmonology",
	"breathing": "Pulmonology",
	"stomach":   "Gastroenterology",
	"digestive": "Gastroenterology",
	"gut":       "Gastroenterology",
}

// Slot is one bookable opening, carrying both the instant and the exact
// phrase the agent speaks for it.
type Slot struct {
	DoctorID int64     `json:"doctor_id"`
	Time     time.Time `json:"time"`
	Display  string    `json:"display"`
}

// Engine answers scheduling questions over the store. It holds no per-call
// state and is safe to share.
type Engine struct {
	store           store.Store
	logger          *logging.Logger
	location        *time.Location
	durationMinutes int
}

// NewEngine builds an engine booking slots of the given duration, rendering
// times in loc.
func NewEngine(st store.Store, logger *logging.Logger, loc *time.Location, durationMinutes int) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if durationMinutes <= 0 {
		durationMinutes = 30
	}
	return &Engine{
		store:           st,
		logger:          logger.Component("booking"),
		location:        loc,
		durationMinutes: durationMinutes,
	}
}

// ResolveSpecialty maps a caller phrase like "heart issues" or "the skin
// department" to a catalog specialty. Resolution tries, in order: direct
// case-insensitive substring match against specialty names, the lay-term
// synonym table, then token overlap against names and descriptions. Returns
// store.ErrSpecialtyNotFound when nothing matches.
func (e *Engine) ResolveSpecialty(ctx context.Context, query string) (*store.Specialty, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, store.ErrSpecialtyNotFound
	}
	specialties, err := e.store.ListSpecialties(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: list specialties: %w", err)
	}

	for i := range specialties {
		name := strings.ToLower(specialties[i].Name)
		// The reverse containment check needs a minimum length: "ENT" is a
		// substring of "Gastroenterology" and must fall through to the
		// synonym table instead.
		if strings.Contains(query, name) || (len(query) >= 5 && strings.Contains(name, query)) {
			return &specialties[i], nil
		}
	}

	for term, target := range synonyms {
		if !containsWord(query, term) {
			continue
		}
		for i := range specialties {
			if strings.EqualFold(specialties[i].Name, target) {
				return &specialties[i], nil
			}
		}
	}

	// Last resort: score token overlap against names and descriptions.
	queryTokens := tokenize(query)
	var best *store.Specialty
	bestScore := 0
	for i := range specialties {
		tokens := tokenize(strings.ToLower(specialties[i].Name + " " + specialties[i].Description))
		score := 0
		for tok := range queryTokens {
			if tokens[tok] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = &specialties[i]
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, store.ErrSpecialtyNotFound
}

// ResolveDoctor maps a spoken doctor reference to a catalog doctor. The "Dr."
// honorific and casing are ignored, and a partial name ("Smith", "Dr. Jane")
// matches as long as it is unambiguous enough to have a first hit in catalog
// order. Returns store.ErrDoctorNotFound when nothing matches.
func (e *Engine) ResolveDoctor(ctx context.Context, name string) (*store.Doctor, error) {
	query := normalizeDoctorName(name)
	if query == "" {
		return nil, store.ErrDoctorNotFound
	}
	doctors, err := e.store.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: list doctors: %w", err)
	}
	for i := range doctors {
		if normalizeDoctorName(doctors[i].Name) == query {
			return &doctors[i], nil
		}
	}
	for i := range doctors {
		if strings.Contains(normalizeDoctorName(doctors[i].Name), query) {
			return &doctors[i], nil
		}
	}
	return nil, store.ErrDoctorNotFound
}

// NextAvailableSlots lists up to limit open slots for a doctor at or after
// from, soonest first. A slot is open when the doctor offers it and no
// scheduled appointment already occupies the instant; canceled and completed
// appointments do not block.
func (e *Engine) NextAvailableSlots(ctx context.Context, doctorID int64, from time.Time, limit int) ([]Slot, error) {
	if limit <= 0 {
		limit = 3
	}
	avail, err := e.store.ListAvailability(ctx, doctorID, truncateToDay(from))
	if err != nil {
		return nil, fmt.Errorf("booking: list availability: %w", err)
	}
	booked, err := e.store.ListScheduledAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("booking: list appointments: %w", err)
	}
	taken := make(map[time.Time]bool, len(booked))
	for _, appt := range booked {
		taken[appt.ScheduledFor.In(e.location)] = true
	}

	slots := make([]Slot, 0, limit)
	for _, a := range avail {
		t := a.SlotTime(e.location)
		if t.Before(from) || taken[t] {
			continue
		}
		slots = append(slots, Slot{DoctorID: doctorID, Time: t, Display: FormatDateTime(t)})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots, nil
}

// Book places an appointment at the requested instant. The store enforces
// atomicity; this just fills in the engine's defaults. Failures surface as
// store.ErrSlotUnavailable or store.ErrSlotConflict for the caller to turn
// into an offer of alternatives.
func (e *Engine) Book(ctx context.Context, doctorID, patientID int64, at time.Time, notes string) (*store.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.book")
	defer span.End()

	appt, err := e.store.BookAppointment(ctx, store.BookingRequest{
		DoctorID:        doctorID,
		PatientID:       patientID,
		ScheduledFor:    at.In(e.location),
		DurationMinutes: e.durationMinutes,
		Notes:           notes,
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Info("booking failed",
			"doctor_id", doctorID, "requested", FormatDateTime(at), "error", err)
		return nil, err
	}
	e.logger.Info("appointment booked",
		"appointment_id", appt.ID, "doctor_id", doctorID, "scheduled_for", FormatDateTime(appt.ScheduledFor))
	return appt, nil
}

func normalizeDoctorName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "dr.")
	name = strings.TrimPrefix(name, "dr ")
	name = strings.TrimPrefix(name, "doctor ")
	return strings.TrimSpace(name)
}

func containsWord(text, word string) bool {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if tok == word {
			return true
		}
	}
	return false
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	return tokens
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
