package session

import (
	"context"
	"strings"
	"time"

	"github.com/assortclinic/clinic-mate/internal/extract"
	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

// dobFormats is the canonical date-of-birth format list. Every entry parses a
// full calendar date; partial dates are rejected.
var dobFormats = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"01-02-2006",
}

// ParseDateOfBirth parses a spoken or typed date of birth against the
// canonical format list. Returns a zero time and false when no format matches.
func ParseDateOfBirth(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dobFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Machine drives a Session through the registration flow and owns the
// create-or-update write path into the entity store.
type Machine struct {
	sess   *Session
	store  store.Store
	logger *logging.Logger
}

// NewMachine wires a Session to its persistence backend.
func NewMachine(sess *Session, st store.Store, logger *logging.Logger) *Machine {
	return &Machine{sess: sess, store: st, logger: logger.Component("session")}
}

// Session returns the machine's underlying session.
func (m *Machine) Session() *Session { return m.sess }

// CollectBasicInfo records name and date of birth and advances to basic_info.
func (m *Machine) CollectBasicInfo(ctx context.Context, name, dob string) error {
	name = strings.TrimSpace(name)
	dob = strings.TrimSpace(dob)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if dob == "" {
		return &ValidationError{Field: "date_of_birth", Reason: "must not be empty"}
	}
	m.sess.PatientName = name
	m.sess.DateOfBirth = dob
	m.sess.advanceTo(StageBasicInfo)
	m.persistIncremental(ctx)
	return nil
}

// CollectInsurance records the payer name and member ID and advances to
// insurance.
func (m *Machine) CollectInsurance(ctx context.Context, provider, memberID string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return &ValidationError{Field: "insurance_provider", Reason: "must not be empty"}
	}
	m.sess.InsuranceProvider = provider
	m.sess.InsuranceID = strings.TrimSpace(memberID)
	m.sess.advanceTo(StageInsurance)
	m.persistIncremental(ctx)
	return nil
}

// CollectReferral records whether the caller has a referral, and from whom,
// then advances to referral. An empty physician with hasReferral=true is
// allowed; callers often know they were referred without recalling the name.
func (m *Machine) CollectReferral(ctx context.Context, hasReferral bool, physician string) error {
	m.sess.HasReferral = hasReferral
	if hasReferral {
		m.sess.ReferredPhysician = strings.TrimSpace(physician)
	} else {
		m.sess.ReferredPhysician = ""
	}
	m.sess.advanceTo(StageReferral)
	m.persistIncremental(ctx)
	return nil
}

// CollectComplaint records the chief medical complaint and advances to
// complaint.
func (m *Machine) CollectComplaint(ctx context.Context, complaint string) error {
	complaint = strings.TrimSpace(complaint)
	if complaint == "" {
		return &ValidationError{Field: "medical_complaint", Reason: "must not be empty"}
	}
	m.sess.MedicalComplaint = complaint
	m.sess.advanceTo(StageComplaint)
	m.persistIncremental(ctx)
	return nil
}

// CollectAddress records the mailing address and advances to address.
func (m *Machine) CollectAddress(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return &ValidationError{Field: "address", Reason: "must not be empty"}
	}
	m.sess.Address = address
	m.sess.advanceTo(StageAddress)
	m.persistIncremental(ctx)
	return nil
}

// CollectPhone records the contact phone number and advances to phone.
func (m *Machine) CollectPhone(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return &ValidationError{Field: "phone", Reason: "must not be empty"}
	}
	m.sess.Phone = extract.Normalize(phone, extract.FieldPhone)
	m.sess.advanceTo(StagePhone)
	m.persistIncremental(ctx)
	return nil
}

// SkipEmail advances past email collection when the caller declines to give
// one.
func (m *Machine) SkipEmail(ctx context.Context) {
	m.sess.advanceTo(StageContact)
}

// CollectEmail records the contact email and advances to contact.
func (m *Machine) CollectEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	m.sess.Email = extract.Normalize(email, extract.FieldEmail)
	m.sess.advanceTo(StageContact)
	m.persistIncremental(ctx)
	return nil
}

// Confirm resolves the caller's yes/no on the read-back of name and date of
// birth.
//
// confirmed=true transitions into complete and triggers the sole registration
// write: an insert when this session has never persisted, otherwise an update
// keyed by the existing patient ID. Calling it again while already complete
// changes nothing and re-triggers nothing.
//
// confirmed=false clears exactly the name, the date of birth and the
// confirmation flag so both can be re-collected; the stage and every other
// collected field survive.
func (m *Machine) Confirm(ctx context.Context, confirmed bool) error {
	if !confirmed {
		m.sess.PatientName = ""
		m.sess.DateOfBirth = ""
		m.sess.IsConfirmed = false
		return nil
	}
	if m.sess.IsConfirmed && m.sess.Stage == StageComplete {
		return nil
	}
	m.sess.IsConfirmed = true
	m.sess.Stage = StageComplete
	m.persist(ctx)
	return nil
}

// Allowed spoken-correction targets. Anything else is rejected with
// UnknownFieldError.
var updatableFields = map[string]bool{
	"name":               true,
	"date_of_birth":      true,
	"insurance_provider": true,
	"insurance_id":       true,
	"referred_physician": true,
	"medical_complaint":  true,
	"address":            true,
	"phone":              true,
	"email":              true,
}

// UpdateField applies a spoken correction to a single already-collected
// field. It never moves the stage; corrections are not progress.
func (m *Machine) UpdateField(ctx context.Context, field, value string) error {
	value = strings.TrimSpace(value)
	if !updatableFields[field] {
		return &UnknownFieldError{Field: field}
	}
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	switch field {
	case "name":
		m.sess.PatientName = value
	case "date_of_birth":
		m.sess.DateOfBirth = value
	case "insurance_provider":
		m.sess.InsuranceProvider = value
	case "insurance_id":
		m.sess.InsuranceID = value
	case "referred_physician":
		m.sess.ReferredPhysician = value
		m.sess.HasReferral = true
	case "medical_complaint":
		m.sess.MedicalComplaint = value
	case "address":
		m.sess.Address = value
	case "phone":
		m.sess.Phone = extract.Normalize(value, extract.FieldPhone)
	case "email":
		m.sess.Email = extract.Normalize(value, extract.FieldEmail)
	}
	m.persistIncremental(ctx)
	return nil
}

// persist runs the create-or-update write path. Persistence failures are
// logged and swallowed: the in-memory session keeps its progress and the
// conversation goes on.
func (m *Machine) persist(ctx context.Context) {
	dob, ok := ParseDateOfBirth(m.sess.DateOfBirth)
	if !ok {
		m.logger.Warn("skipping persistence, unparseable date of birth",
			"session_id", m.sess.ID.String(), "raw", m.sess.DateOfBirth)
		return
	}

	if m.sess.DatabasePatientID == 0 {
		p := &store.Patient{
			Name:              m.sess.PatientName,
			DateOfBirth:       dob,
			Email:             m.sess.Email,
			Phone:             m.sess.Phone,
			Address:           m.sess.Address,
			InsuranceProvider: m.sess.InsuranceProvider,
			InsuranceID:       m.sess.InsuranceID,
			HasReferral:       m.sess.HasReferral,
			ReferredPhysician: m.sess.ReferredPhysician,
			MedicalComplaint:  m.sess.MedicalComplaint,
		}
		created, err := m.store.CreatePatient(ctx, p)
		if err != nil {
			m.logger.Error("patient create failed", "session_id", m.sess.ID.String(), "error", err)
			return
		}
		m.sess.DatabasePatientID = created.ID
		m.sess.IsRegistered = true
		m.logger.Info("patient registered", "session_id", m.sess.ID.String(), "patient_id", created.ID)
		return
	}

	if _, err := m.store.UpdatePatient(ctx, m.sess.DatabasePatientID, m.fullUpdate(dob)); err != nil {
		m.logger.Error("patient update failed",
			"session_id", m.sess.ID.String(), "patient_id", m.sess.DatabasePatientID, "error", err)
		return
	}
	m.sess.IsRegistered = true
}

// persistIncremental pushes collected fields to an already-registered patient
// record. Before registration it is a no-op; before confirmation nothing has
// been written to keep updated.
func (m *Machine) persistIncremental(ctx context.Context) {
	if m.sess.DatabasePatientID == 0 {
		return
	}
	dob, _ := ParseDateOfBirth(m.sess.DateOfBirth)
	if _, err := m.store.UpdatePatient(ctx, m.sess.DatabasePatientID, m.fullUpdate(dob)); err != nil {
		m.logger.Error("incremental patient update failed",
			"session_id", m.sess.ID.String(), "patient_id", m.sess.DatabasePatientID, "error", err)
	}
}

func (m *Machine) fullUpdate(dob time.Time) store.PatientUpdate {
	u := store.PatientUpdate{
		HasReferral: &m.sess.HasReferral,
	}
	if m.sess.PatientName != "" {
		u.Name = &m.sess.PatientName
	}
	if !dob.IsZero() {
		u.DateOfBirth = &dob
	}
	if m.sess.Email != "" {
		u.Email = &m.sess.Email
	}
	if m.sess.Phone != "" {
		u.Phone = &m.sess.Phone
	}
	if m.sess.Address != "" {
		u.Address = &m.sess.Address
	}
	if m.sess.InsuranceProvider != "" {
		u.InsuranceProvider = &m.sess.InsuranceProvider
	}
	if m.sess.InsuranceID != "" {
		u.InsuranceID = &m.sess.InsuranceID
	}
	if m.sess.ReferredPhysician != "" {
		u.ReferredPhysician = &m.sess.ReferredPhysician
	}
	if m.sess.MedicalComplaint != "" {
		u.MedicalComplaint = &m.sess.MedicalComplaint
	}
	return u
}
