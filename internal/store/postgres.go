package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on scheduled appointments; it backstops the booking critical section.
const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it in
// tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists clinic entities in the relational database.
type PostgresStore struct {
	db DB
}

// NewPostgresStore initializes a store backed by a pgx pool.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: db}
}

// CreatePatient inserts a new patient row.
func (s *PostgresStore) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO patients (name, date_of_birth, email, phone, address,
			insurance_provider, insurance_id, has_referral, referred_physician, medical_complaint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	created := *p
	if err := s.db.QueryRow(ctx, query,
		p.Name,
		p.DateOfBirth,
		p.Email,
		p.Phone,
		p.Address,
		p.InsuranceProvider,
		p.InsuranceID,
		p.HasReferral,
		p.ReferredPhysician,
		p.MedicalComplaint,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, fmt.Errorf("store: insert patient: %w", err)
	}
	return &created, nil
}

// GetPatient fetches a patient by ID.
func (s *PostgresStore) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	query := `
		SELECT id, name, date_of_birth, email, phone, address,
			insurance_provider, insurance_id, has_referral, referred_physician,
			medical_complaint, created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var p Patient
	if err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.DateOfBirth,
		&p.Email,
		&p.Phone,
		&p.Address,
		&p.InsuranceProvider,
		&p.InsuranceID,
		&p.HasReferral,
		&p.ReferredPhysician,
		&p.MedicalComplaint,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("store: select patient: %w", err)
	}
	return &p, nil
}

// UpdatePatient applies the non-nil fields of upd; nil arguments leave the
// column untouched via COALESCE.
func (s *PostgresStore) UpdatePatient(ctx context.Context, id int64, upd PatientUpdate) (*Patient, error) {
	query := `
		UPDATE patients SET
			name = COALESCE($2, name),
			date_of_birth = COALESCE($3, date_of_birth),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			address = COALESCE($6, address),
			insurance_provider = COALESCE($7, insurance_provider),
			insurance_id = COALESCE($8, insurance_id),
			has_referral = COALESCE($9, has_referral),
			referred_physician = COALESCE($10, referred_physician),
			medical_complaint = COALESCE($11, medical_complaint),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, date_of_birth, email, phone, address,
			insurance_provider, insurance_id, has_referral, referred_physician,
			medical_complaint, created_at, updated_at
	`
	var p Patient
	if err := s.db.QueryRow(ctx, query,
		id,
		upd.Name,
		upd.DateOfBirth,
		upd.Email,
		upd.Phone,
		upd.Address,
		upd.InsuranceProvider,
		upd.InsuranceID,
		upd.HasReferral,
		upd.ReferredPhysician,
		upd.MedicalComplaint,
	).Scan(
		&p.ID,
		&p.Name,
		&p.DateOfBirth,
		&p.Email,
		&p.Phone,
		&p.Address,
		&p.InsuranceProvider,
		&p.InsuranceID,
		&p.HasReferral,
		&p.ReferredPhysician,
		&p.MedicalComplaint,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("store: update patient: %w", err)
	}
	return &p, nil
}

// EnsureSpecialty finds or creates a specialty. The insert-then-reselect pair
// is atomic against concurrent seeders thanks to the unique index on
// lower(name).
func (s *PostgresStore) EnsureSpecialty(ctx context.Context, name, description string) (*Specialty, error) {
	insert := `
		INSERT INTO specialties (name, description)
		VALUES ($1, $2)
		ON CONFLICT ((lower(name))) DO NOTHING
		RETURNING id, name, description
	`
	var sp Specialty
	err := s.db.QueryRow(ctx, insert, name, description).Scan(&sp.ID, &sp.Name, &sp.Description)
	if err == nil {
		return &sp, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: insert specialty: %w", err)
	}

	query := `SELECT id, name, description FROM specialties WHERE lower(name) = lower($1)`
	if err := s.db.QueryRow(ctx, query, name).Scan(&sp.ID, &sp.Name, &sp.Description); err != nil {
		return nil, fmt.Errorf("store: select specialty: %w", err)
	}
	return &sp, nil
}

// ListSpecialties returns all specialties ordered by name.
func (s *PostgresStore) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM specialties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list specialties: %w", err)
	}
	defer rows.Close()

	var out []Specialty
	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Description); err != nil {
			return nil, fmt.Errorf("store: scan specialty: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// GetSpecialty fetches a specialty by ID.
func (s *PostgresStore) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	var sp Specialty
	err := s.db.QueryRow(ctx, `SELECT id, name, description FROM specialties WHERE id = $1`, id).
		Scan(&sp.ID, &sp.Name, &sp.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, fmt.Errorf("store: select specialty: %w", err)
	}
	return &sp, nil
}

// EnsureDoctor finds or creates a doctor, same idiom as EnsureSpecialty.
func (s *PostgresStore) EnsureDoctor(ctx context.Context, name string, specialtyID int64, bio string) (*Doctor, error) {
	insert := `
		INSERT INTO doctors (name, specialty_id, bio)
		VALUES ($1, $2, $3)
		ON CONFLICT ((lower(name))) DO NOTHING
		RETURNING id, name, specialty_id, bio
	`
	var d Doctor
	err := s.db.QueryRow(ctx, insert, name, specialtyID, bio).Scan(&d.ID, &d.Name, &d.SpecialtyID, &d.Bio)
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: insert doctor: %w", err)
	}

	query := `SELECT id, name, specialty_id, bio FROM doctors WHERE lower(name) = lower($1)`
	if err := s.db.QueryRow(ctx, query, name).Scan(&d.ID, &d.Name, &d.SpecialtyID, &d.Bio); err != nil {
		return nil, fmt.Errorf("store: select doctor: %w", err)
	}
	return &d, nil
}

// ListDoctors returns every doctor ordered by name.
func (s *PostgresStore) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.queryDoctors(ctx, `SELECT id, name, specialty_id, bio FROM doctors ORDER BY name`)
}

// ListDoctorsBySpecialty returns the doctors of one specialty ordered by name.
func (s *PostgresStore) ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	return s.queryDoctors(ctx,
		`SELECT id, name, specialty_id, bio FROM doctors WHERE specialty_id = $1 ORDER BY name`,
		specialtyID)
}

func (s *PostgresStore) queryDoctors(ctx context.Context, query string, args ...any) ([]Doctor, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list doctors: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.SpecialtyID, &d.Bio); err != nil {
			return nil, fmt.Errorf("store: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDoctor fetches a doctor by ID.
func (s *PostgresStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var d Doctor
	err := s.db.QueryRow(ctx, `SELECT id, name, specialty_id, bio FROM doctors WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.SpecialtyID, &d.Bio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("store: select doctor: %w", err)
	}
	return &d, nil
}

// AddAvailability upserts one offerable slot so reseeding stays idempotent.
func (s *PostgresStore) AddAvailability(ctx context.Context, doctorID int64, date time.Time, timeOfDay string, available bool) error {
	query := `
		INSERT INTO doctor_availability (doctor_id, available_on, time_of_day, is_available)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, available_on, time_of_day)
		DO UPDATE SET is_available = EXCLUDED.is_available
	`
	if _, err := s.db.Exec(ctx, query, doctorID, truncateToDay(date), timeOfDay, available); err != nil {
		return fmt.Errorf("store: upsert availability: %w", err)
	}
	return nil
}

// ListAvailability returns a doctor's available slots dated on or after
// fromDate, ordered by (date, time).
func (s *PostgresStore) ListAvailability(ctx context.Context, doctorID int64, fromDate time.Time) ([]DoctorAvailability, error) {
	query := `
		SELECT id, doctor_id, available_on, time_of_day, is_available
		FROM doctor_availability
		WHERE doctor_id = $1 AND is_available AND available_on >= $2
		ORDER BY available_on, time_of_day
	`
	rows, err := s.db.Query(ctx, query, doctorID, truncateToDay(fromDate))
	if err != nil {
		return nil, fmt.Errorf("store: list availability: %w", err)
	}
	defer rows.Close()

	var out []DoctorAvailability
	for rows.Next() {
		var a DoctorAvailability
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.Date, &a.TimeOfDay, &a.Available); err != nil {
			return nil, fmt.Errorf("store: scan availability: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// BookAppointment runs the booking critical section in one transaction: lock
// the availability row, check for a conflicting scheduled appointment, insert.
// Two concurrent attempts for the same doctor and time serialize on the row
// lock; the loser gets ErrSlotConflict.
func (s *PostgresStore) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	day := truncateToDay(req.ScheduledFor)
	timeOfDay := req.ScheduledFor.Format("15:04")

	var availabilityID int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM doctor_availability
		WHERE doctor_id = $1 AND available_on = $2 AND time_of_day = $3 AND is_available
		FOR UPDATE
	`, req.DoctorID, day, timeOfDay).Scan(&availabilityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("store: lock availability: %w", err)
	}

	var conflict bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND scheduled_for = $2 AND status = 'scheduled'
		)
	`, req.DoctorID, req.ScheduledFor).Scan(&conflict)
	if err != nil {
		return nil, fmt.Errorf("store: check conflict: %w", err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	appt := Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		ScheduledFor:    req.ScheduledFor,
		DurationMinutes: duration,
		Status:          StatusScheduled,
		Notes:           req.Notes,
	}
	var patientID any
	if req.PatientID != 0 {
		patientID = req.PatientID
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (doctor_id, patient_id, scheduled_for, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, 'scheduled', $5)
		RETURNING id, created_at
	`, req.DoctorID, patientID, req.ScheduledFor, duration, req.Notes).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("store: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("store: commit booking: %w", err)
	}
	return &appt, nil
}

// GetAppointment fetches an appointment by ID.
func (s *PostgresStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	query := `
		SELECT id, doctor_id, COALESCE(patient_id, 0), scheduled_for,
			duration_minutes, status, notes, created_at
		FROM appointments
		WHERE id = $1
	`
	var appt Appointment
	if err := s.db.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.ScheduledFor,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("store: select appointment: %w", err)
	}
	return &appt, nil
}

// ListScheduledAppointments returns a doctor's scheduled appointments ordered
// by time.
func (s *PostgresStore) ListScheduledAppointments(ctx context.Context, doctorID int64) ([]Appointment, error) {
	query := `
		SELECT id, doctor_id, COALESCE(patient_id, 0), scheduled_for,
			duration_minutes, status, notes, created_at
		FROM appointments
		WHERE doctor_id = $1 AND status = 'scheduled'
		ORDER BY scheduled_for
	`
	rows, err := s.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.DoctorID,
			&appt.PatientID,
			&appt.ScheduledFor,
			&appt.DurationMinutes,
			&appt.Status,
			&appt.Notes,
			&appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// CancelAppointment marks an appointment canceled, freeing its slot.
func (s *PostgresStore) CancelAppointment(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `UPDATE appointments SET status = 'canceled' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
