package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps all entities in process memory. It backs tests and serves
// as a degraded mode when no database is configured. One mutex guards every
// operation, which also makes the booking critical section atomic.
type MemoryStore struct {
	mu sync.Mutex

	patients       map[int64]*Patient
	specialties    map[int64]*Specialty
	doctors        map[int64]*Doctor
	availabilities []DoctorAvailability
	appointments   map[int64]*Appointment

	nextPatientID      int64
	nextSpecialtyID    int64
	nextDoctorID       int64
	nextAvailabilityID int64
	nextAppointmentID  int64

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:     make(map[int64]*Patient),
		specialties:  make(map[int64]*Specialty),
		doctors:      make(map[int64]*Doctor),
		appointments: make(map[int64]*Appointment),
		now:          time.Now,
	}
}

// SetClock overrides the store clock. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CreatePatient inserts a new patient row.
func (s *MemoryStore) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPatientID++
	created := *p
	created.ID = s.nextPatientID
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.patients[created.ID] = &created

	out := created
	return &out, nil
}

// GetPatient returns a patient by ID.
func (s *MemoryStore) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	out := *p
	return &out, nil
}

// UpdatePatient applies the non-nil fields of upd to an existing row.
func (s *MemoryStore) UpdatePatient(ctx context.Context, id int64, upd PatientUpdate) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.DateOfBirth != nil {
		p.DateOfBirth = *upd.DateOfBirth
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.InsuranceProvider != nil {
		p.InsuranceProvider = *upd.InsuranceProvider
	}
	if upd.InsuranceID != nil {
		p.InsuranceID = *upd.InsuranceID
	}
	if upd.HasReferral != nil {
		p.HasReferral = *upd.HasReferral
	}
	if upd.ReferredPhysician != nil {
		p.ReferredPhysician = *upd.ReferredPhysician
	}
	if upd.MedicalComplaint != nil {
		p.MedicalComplaint = *upd.MedicalComplaint
	}
	p.UpdatedAt = s.now()

	out := *p
	return &out, nil
}

// EnsureSpecialty finds a specialty by case-insensitive name or creates it.
func (s *MemoryStore) EnsureSpecialty(ctx context.Context, name, description string) (*Specialty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.specialties {
		if strings.EqualFold(sp.Name, name) {
			out := *sp
			return &out, nil
		}
	}

	s.nextSpecialtyID++
	sp := &Specialty{ID: s.nextSpecialtyID, Name: name, Description: description}
	s.specialties[sp.ID] = sp
	out := *sp
	return &out, nil
}

// ListSpecialties returns all specialties ordered by name.
func (s *MemoryStore) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Specialty, 0, len(s.specialties))
	for _, sp := range s.specialties {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetSpecialty returns a specialty by ID.
func (s *MemoryStore) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.specialties[id]
	if !ok {
		return nil, ErrSpecialtyNotFound
	}
	out := *sp
	return &out, nil
}

// EnsureDoctor finds a doctor by case-insensitive name or creates one.
func (s *MemoryStore) EnsureDoctor(ctx context.Context, name string, specialtyID int64, bio string) (*Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.specialties[specialtyID]; !ok {
		return nil, ErrSpecialtyNotFound
	}
	for _, d := range s.doctors {
		if strings.EqualFold(d.Name, name) {
			out := *d
			return &out, nil
		}
	}

	s.nextDoctorID++
	d := &Doctor{ID: s.nextDoctorID, Name: name, SpecialtyID: specialtyID, Bio: bio}
	s.doctors[d.ID] = d
	out := *d
	return &out, nil
}

// ListDoctors returns all doctors ordered by name.
func (s *MemoryStore) ListDoctors(ctx context.Context) ([]Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDoctorsLocked(0), nil
}

// ListDoctorsBySpecialty returns the doctors of one specialty ordered by name.
func (s *MemoryStore) ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDoctorsLocked(specialtyID), nil
}

func (s *MemoryStore) listDoctorsLocked(specialtyID int64) []Doctor {
	out := make([]Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if specialtyID != 0 && d.SpecialtyID != specialtyID {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetDoctor returns a doctor by ID.
func (s *MemoryStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	out := *d
	return &out, nil
}

// AddAvailability records one offerable slot. Re-adding the same slot is a
// no-op so seeding stays idempotent.
func (s *MemoryStore) AddAvailability(ctx context.Context, doctorID int64, date time.Time, timeOfDay string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[doctorID]; !ok {
		return ErrDoctorNotFound
	}

	day := truncateToDay(date)
	for i := range s.availabilities {
		a := &s.availabilities[i]
		if a.DoctorID == doctorID && a.Date.Equal(day) && a.TimeOfDay == timeOfDay {
			a.Available = available
			return nil
		}
	}

	s.nextAvailabilityID++
	s.availabilities = append(s.availabilities, DoctorAvailability{
		ID:        s.nextAvailabilityID,
		DoctorID:  doctorID,
		Date:      day,
		TimeOfDay: timeOfDay,
		Available: available,
	})
	return nil
}

// ListAvailability returns a doctor's available slots dated on or after
// fromDate, ordered by (date, time).
func (s *MemoryStore) ListAvailability(ctx context.Context, doctorID int64, fromDate time.Time) ([]DoctorAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := truncateToDay(fromDate)
	var out []DoctorAvailability
	for _, a := range s.availabilities {
		if a.DoctorID != doctorID || !a.Available || a.Date.Before(from) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TimeOfDay < out[j].TimeOfDay
	})
	return out, nil
}

// BookAppointment implements the atomic check-and-insert under the store mutex.
func (s *MemoryStore) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[req.DoctorID]; !ok {
		return nil, ErrDoctorNotFound
	}

	day := truncateToDay(req.ScheduledFor)
	tod := req.ScheduledFor.Format("15:04")
	slotExists := false
	for _, a := range s.availabilities {
		if a.DoctorID == req.DoctorID && a.Available && a.Date.Equal(day) && a.TimeOfDay == tod {
			slotExists = true
			break
		}
	}
	if !slotExists {
		return nil, ErrSlotUnavailable
	}

	for _, appt := range s.appointments {
		if appt.DoctorID == req.DoctorID && appt.Status == StatusScheduled && appt.ScheduledFor.Equal(req.ScheduledFor) {
			return nil, ErrSlotConflict
		}
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	s.nextAppointmentID++
	appt := &Appointment{
		ID:              s.nextAppointmentID,
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		ScheduledFor:    req.ScheduledFor,
		DurationMinutes: duration,
		Status:          StatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       s.now(),
	}
	s.appointments[appt.ID] = appt

	out := *appt
	return &out, nil
}

// GetAppointment returns an appointment by ID.
func (s *MemoryStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *appt
	return &out, nil
}

// ListScheduledAppointments returns a doctor's scheduled appointments ordered
// by time.
func (s *MemoryStore) ListScheduledAppointments(ctx context.Context, doctorID int64) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Appointment
	for _, appt := range s.appointments {
		if appt.DoctorID == doctorID && appt.Status == StatusScheduled {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

// CancelAppointment marks an appointment canceled, freeing its slot.
func (s *MemoryStore) CancelAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	appt.Status = StatusCanceled
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
