package store

import "errors"

var (
	// ErrMissingName is returned when a patient is created without a name.
	ErrMissingName = errors.New("patient name is required")

	// ErrMissingDateOfBirth is returned when a patient is created without a date of birth.
	ErrMissingDateOfBirth = errors.New("patient date of birth is required")

	// ErrPatientNotFound is returned when a patient lookup has no match.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrSpecialtyNotFound is returned when a specialty lookup has no match.
	ErrSpecialtyNotFound = errors.New("specialty not found")

	// ErrDoctorNotFound is returned when a doctor lookup has no match.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrAppointmentNotFound is returned when an appointment lookup has no match.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotUnavailable is returned when no availability row exists for the
	// requested doctor and time.
	ErrSlotUnavailable = errors.New("no availability at the requested time")

	// ErrSlotConflict is returned when a scheduled appointment already holds
	// the requested doctor and time. The loser of a booking race sees this.
	ErrSlotConflict = errors.New("time slot already booked")
)
