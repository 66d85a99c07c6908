package store

import (
	"strings"
	"time"
)

// Appointment statuses. "pending" descriptors produced by the booking engine
// never reach the store; only real rows carry these values.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Patient is a registered caller. Name and date of birth are mandatory at
// creation; everything else arrives incrementally over the call.
type Patient struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Address           string    `json:"address,omitempty"`
	InsuranceProvider string    `json:"insurance_provider,omitempty"`
	InsuranceID       string    `json:"insurance_id,omitempty"`
	HasReferral       bool      `json:"has_referral"`
	ReferredPhysician string    `json:"referred_physician,omitempty"`
	MedicalComplaint  string    `json:"medical_complaint,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks the mandatory creation fields.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if p.DateOfBirth.IsZero() {
		return ErrMissingDateOfBirth
	}
	return nil
}

// PatientUpdate carries a partial update; nil fields are left untouched.
type PatientUpdate struct {
	Name              *string
	DateOfBirth       *time.Time
	Email             *string
	Phone             *string
	Address           *string
	InsuranceProvider *string
	InsuranceID       *string
	HasReferral       *bool
	ReferredPhysician *string
	MedicalComplaint  *string
}

// Specialty is a medical department; names are unique case-insensitively.
type Specialty struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Doctor belongs to exactly one specialty.
type Doctor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SpecialtyID int64  `json:"specialty_id"`
	Bio         string `json:"bio,omitempty"`
}

// DoctorAvailability is one offerable 1-hour slot on the supply side of the
// schedule. Slots are consumed logically by the presence of a scheduled
// appointment, not by flipping Available.
type DoctorAvailability struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	Date      time.Time `json:"date"`
	TimeOfDay string    `json:"time_of_day"` // "HH:MM", clinic-local
	Available bool      `json:"available"`
}

// SlotTime combines the calendar date and time-of-day into a single instant
// in loc.
func (a DoctorAvailability) SlotTime(loc *time.Location) time.Time {
	hour, minute := parseTimeOfDay(a.TimeOfDay)
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), hour, minute, 0, 0, loc)
}

func parseTimeOfDay(s string) (hour, minute int) {
	if t, err := time.Parse("15:04", strings.TrimSpace(s)); err == nil {
		return t.Hour(), t.Minute()
	}
	return 0, 0
}

// Appointment is a booked (or historical) visit. PatientID is zero when the
// caller was never persisted.
type Appointment struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctor_id"`
	PatientID       int64     `json:"patient_id,omitempty"`
	ScheduledFor    time.Time `json:"scheduled_for"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingRequest is the input to the atomic booking operation.
type BookingRequest struct {
	DoctorID        int64
	PatientID       int64 // zero when the patient record does not exist yet
	ScheduledFor    time.Time
	DurationMinutes int
	Notes           string
}
