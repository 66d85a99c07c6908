// Package session owns the per-call registration state. One call owns exactly
// one Session for its lifetime; the conversational transport delivers events
// serially, so the Session itself needs no locking.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/assortclinic/clinic-mate/internal/extract"
)

// Stage is the ordered checkpoint in the registration conversation flow.
// Stages only move forward; the single exception is documented on
// Machine.Confirm.
type Stage int

const (
	StageInitial Stage = iota
	StageBasicInfo
	StageInsurance
	StageReferral
	StageComplaint
	StageAddress
	StagePhone
	StageContact
	StageComplete
)

var stageNames = map[Stage]string{
	StageInitial:   "initial",
	StageBasicInfo: "basic_info",
	StageInsurance: "insurance",
	StageReferral:  "referral",
	StageComplaint: "complaint",
	StageAddress:   "address",
	StagePhone:     "phone",
	StageContact:   "contact",
	StageComplete:  "complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// AppointmentSummary is the structured appointment descriptor carried in the
// Session, whether the booking succeeded ("scheduled") or degraded to a
// pending record.
type AppointmentSummary struct {
	AppointmentID   int64  `json:"appointment_id,omitempty"`
	DoctorName      string `json:"doctor_name,omitempty"`
	Specialty       string `json:"specialty,omitempty"`
	DateTime        string `json:"date_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Status          string `json:"status,omitempty"`
	Location        string `json:"location,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Session is the mutable per-call registration and booking state.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	// Patient fields as collected. DateOfBirth keeps the raw string as
	// spoken; parsing happens at persistence time.
	PatientName       string
	DateOfBirth       string
	Email             string
	Phone             string
	Address           string
	InsuranceProvider string
	InsuranceID       string
	HasReferral       bool
	ReferredPhysician string
	MedicalComplaint  string

	Stage        Stage
	IsConfirmed  bool
	IsRegistered bool

	// DatabasePatientID is set at most once per session. Once set, every
	// persistence operation is an update keyed by it, never an insert.
	DatabasePatientID int64

	// Appointment intent.
	WantsAppointment    bool
	SpecialtyPreference string
	DoctorPreference    string
	AppointmentID       int64
	Appointment         *AppointmentSummary

	// Turns is the conversation-history feed, append-only from the core's
	// perspective. The extraction fallback reads it.
	Turns []extract.Turn
}

// New creates a Session for a freshly started call.
func New() *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Stage:     StageInitial,
	}
}

// AppendTurn records one utterance delivered by the transport.
func (s *Session) AppendTurn(role, text string) {
	s.Turns = append(s.Turns, extract.Turn{Role: role, Text: text})
}

// advanceTo moves the stage forward, never backward.
func (s *Session) advanceTo(target Stage) {
	if target > s.Stage {
		s.Stage = target
	}
}
