package store

import (
	"context"
	"time"
)

// Store is the persistence boundary for clinic entities. It is shared across
// concurrently active calls; implementations serialize find-or-create lookups
// and the booking critical section.
type Store interface {
	// Patients. Create validates the mandatory fields; Update is partial and
	// keyed by ID, never an insert.
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	UpdatePatient(ctx context.Context, id int64, upd PatientUpdate) (*Patient, error)

	// Specialties and doctors. Ensure* are atomic find-or-create keyed by
	// case-insensitive name, safe under concurrent seeding.
	EnsureSpecialty(ctx context.Context, name, description string) (*Specialty, error)
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	GetSpecialty(ctx context.Context, id int64) (*Specialty, error)
	EnsureDoctor(ctx context.Context, name string, specialtyID int64, bio string) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)

	// Availability calendar.
	AddAvailability(ctx context.Context, doctorID int64, date time.Time, timeOfDay string, available bool) error
	ListAvailability(ctx context.Context, doctorID int64, fromDate time.Time) ([]DoctorAvailability, error)

	// BookAppointment checks the availability row and the absence of a
	// conflicting scheduled appointment atomically with the insert. It fails
	// fast with ErrSlotUnavailable or ErrSlotConflict; retry is the caller's
	// policy.
	BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	ListScheduledAppointments(ctx context.Context, doctorID int64) ([]Appointment, error)
	CancelAppointment(ctx context.Context, id int64) error
}
