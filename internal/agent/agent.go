// Package agent exposes the named operations the conversational transport
// invokes during a call. Each operation mutates the call's Session through
// the registration machine or the booking engine and returns a short spoken
// reply. One Agent serves exactly one call; the transport delivers events
// serially, so operations never run concurrently within a call.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assortclinic/clinic-mate/internal/booking"
	"github.com/assortclinic/clinic-mate/internal/extract"
	"github.com/assortclinic/clinic-mate/internal/notify"
	"github.com/assortclinic/clinic-mate/internal/observability/metrics"
	"github.com/assortclinic/clinic-mate/internal/session"
	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/internal/summary"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

// Config wires an Agent's collaborators.
type Config struct {
	Store    store.Store
	Engine   *booking.Engine
	Renderer *summary.Renderer
	Notifier *notify.Service
	History  HistoryStore
	Metrics  *metrics.CallMetrics
	Logger   *logging.Logger
	Location string
	Now      func() time.Time
}

// Agent drives one call.
type Agent struct {
	callID  string
	sess    *session.Session
	machine *session.Machine

	store    store.Store
	engine   *booking.Engine
	renderer *summary.Renderer
	notifier *notify.Service
	history  HistoryStore
	metrics  *metrics.CallMetrics
	logger   *logging.Logger

	location string
	now      func() time.Time

	// Booking context resolved so far this call.
	specialty *store.Specialty
	doctor    *store.Doctor
}

// New starts an Agent for one call.
func New(callID string, cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.History == nil {
		cfg.History = NewMemoryHistoryStore()
	}
	sess := session.New()
	return &Agent{
		callID:   callID,
		sess:     sess,
		machine:  session.NewMachine(sess, cfg.Store, cfg.Logger),
		store:    cfg.Store,
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
		notifier: cfg.Notifier,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.Component("agent"),
		location: cfg.Location,
		now:      cfg.Now,
	}
}

// Session exposes the call's session for the summary assembler and tests.
func (a *Agent) Session() *session.Session { return a.sess }

// AddTurn records one utterance and persists the running history
// best-effort.
func (a *Agent) AddTurn(ctx context.Context, role, text string) {
	a.sess.AppendTurn(role, text)
	if err := a.history.Save(ctx, a.callID, a.sess.Turns); err != nil {
		a.logger.Warn("history save failed", "call_id", a.callID, "error", err)
	}
}

// RegisterPatient records the caller's name and date of birth and asks for
// read-back confirmation.
func (a *Agent) RegisterPatient(ctx context.Context, name, dob string) string {
	if err := a.machine.CollectBasicInfo(ctx, name, dob); err != nil {
		return a.validationReply(err)
	}
	return fmt.Sprintf("Let me confirm: your name is %s and your date of birth is %s. Is that correct?",
		a.sess.PatientName, a.sess.DateOfBirth)
}

// ConfirmInformation resolves the caller's yes/no on the read-back. Before a
// yes is applied, any still-missing identity field is recovered from the
// conversation history; recovery never overrides what was collected
// explicitly.
func (a *Agent) ConfirmInformation(ctx context.Context, confirmed bool) string {
	if confirmed {
		a.recoverIdentityFields()
		if a.sess.PatientName == "" || a.sess.DateOfBirth == "" {
			return "I still need your name and date of birth before I can confirm. Could you give me those again?"
		}
	}
	alreadyComplete := a.sess.IsConfirmed && a.sess.Stage == session.StageComplete
	if err := a.machine.Confirm(ctx, confirmed); err != nil {
		return a.validationReply(err)
	}
	if !confirmed {
		return "No problem, let's try again. What is your name and date of birth?"
	}
	if !alreadyComplete {
		if a.sess.IsRegistered {
			a.metrics.ObserveRegistration("registered")
		} else {
			a.metrics.ObserveRegistration("failed")
		}
	}
	return fmt.Sprintf("Thank you, %s. Your information is confirmed.", a.sess.PatientName)
}

// CollectInsuranceInfo records the caller's insurance details.
func (a *Agent) CollectInsuranceInfo(ctx context.Context, provider, memberID string) string {
	if err := a.machine.CollectInsurance(ctx, provider, memberID); err != nil {
		return a.validationReply(err)
	}
	return fmt.Sprintf("Got it, %s. Do you have a referral from another physician?", a.sess.InsuranceProvider)
}

// CollectReferralInfo records whether the caller was referred and by whom.
func (a *Agent) CollectReferralInfo(ctx context.Context, hasReferral bool, physician string) string {
	if err := a.machine.CollectReferral(ctx, hasReferral, physician); err != nil {
		return a.validationReply(err)
	}
	if a.sess.HasReferral && a.sess.ReferredPhysician != "" {
		return fmt.Sprintf("Noted, referred by %s. What brings you in today?", a.sess.ReferredPhysician)
	}
	if a.sess.HasReferral {
		return "Noted, you have a referral. What brings you in today?"
	}
	return "No referral, that's fine. What brings you in today?"
}

// CollectMedicalComplaint records the chief complaint.
func (a *Agent) CollectMedicalComplaint(ctx context.Context, text string) string {
	if err := a.machine.CollectComplaint(ctx, text); err != nil {
		return a.validationReply(err)
	}
	return "I'm sorry to hear that. Could I get your address next?"
}

// CollectAddress records the mailing address.
func (a *Agent) CollectAddress(ctx context.Context, text string) string {
	if err := a.machine.CollectAddress(ctx, text); err != nil {
		return a.validationReply(err)
	}
	return "Thank you. And what's the best phone number to reach you?"
}

// CollectPhone records the contact phone number.
func (a *Agent) CollectPhone(ctx context.Context, text string) string {
	if err := a.machine.CollectPhone(ctx, text); err != nil {
		return a.validationReply(err)
	}
	return fmt.Sprintf("I have your phone number as %s. Do you have an email address?", a.sess.Phone)
}

// CollectEmail records the email address. An empty value first tries to
// recover one from the conversation; failing that, email is skipped — it is
// the one optional contact field.
func (a *Agent) CollectEmail(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		if recovered, ok := extract.Extract(a.sess.Turns, extract.FieldEmail); ok {
			text = recovered
			a.metrics.ObserveExtractionHit(string(extract.FieldEmail))
		}
	}
	if strings.TrimSpace(text) == "" {
		a.machine.SkipEmail(ctx)
		return "That's okay, we can proceed without an email."
	}
	if err := a.machine.CollectEmail(ctx, text); err != nil {
		return a.validationReply(err)
	}
	return fmt.Sprintf("Perfect, I have %s on file.", a.sess.Email)
}

// UpdateSpecificInfo applies a spoken correction to a single field.
func (a *Agent) UpdateSpecificInfo(ctx context.Context, field, value string) string {
	if err := a.machine.UpdateField(ctx, field, value); err != nil {
		var unknown *session.UnknownFieldError
		if errors.As(err, &unknown) {
			return fmt.Sprintf("I can't update %q. I can update: name, date of birth, insurance, referral, complaint, address, phone, or email.", field)
		}
		return a.validationReply(err)
	}
	return fmt.Sprintf("Done, I've updated your %s.", strings.ReplaceAll(field, "_", " "))
}

// CheckAppointmentInterest records whether the caller wants to book a visit.
func (a *Agent) CheckAppointmentInterest(ctx context.Context, wants bool) string {
	a.sess.WantsAppointment = wants
	if !wants {
		return "Understood, no appointment today. Is there anything else I can help with?"
	}
	names, err := a.specialtyNames(ctx)
	if err != nil {
		return "I'd be happy to help you book an appointment. Which department would you like to see?"
	}
	return fmt.Sprintf("I'd be happy to help you book an appointment. We have: %s. Which would you like?",
		strings.Join(names, ", "))
}

// SelectSpecialty resolves a spoken department reference ("heart issues",
// "ENT") and offers the doctors in it.
func (a *Agent) SelectSpecialty(ctx context.Context, text string) string {
	a.sess.WantsAppointment = true
	spec, err := a.engine.ResolveSpecialty(ctx, text)
	if err != nil {
		if errors.Is(err, store.ErrSpecialtyNotFound) {
			names, nerr := a.specialtyNames(ctx)
			if nerr != nil {
				return "I couldn't match that to one of our departments. Could you try again?"
			}
			return fmt.Sprintf("I couldn't match that to one of our departments. We have: %s.", strings.Join(names, ", "))
		}
		a.logger.Error("specialty resolution failed", "call_id", a.callID, "error", err)
		return "I'm having trouble looking that up right now. Could you try again?"
	}
	a.specialty = spec
	a.sess.SpecialtyPreference = spec.Name

	doctors, err := a.store.ListDoctorsBySpecialty(ctx, spec.ID)
	if err != nil || len(doctors) == 0 {
		return fmt.Sprintf("%s it is. Which doctor would you like to see?", spec.Name)
	}
	names := make([]string, len(doctors))
	for i, d := range doctors {
		names[i] = d.Name
	}
	return fmt.Sprintf("%s it is. We have %s. Who would you prefer?", spec.Name, strings.Join(names, " and "))
}

// SelectDoctor resolves a spoken doctor reference and offers their next open
// slots.
func (a *Agent) SelectDoctor(ctx context.Context, text string) string {
	a.sess.WantsAppointment = true
	doc, err := a.engine.ResolveDoctor(ctx, text)
	if err != nil {
		if errors.Is(err, store.ErrDoctorNotFound) {
			return "I couldn't find that doctor. Could you repeat the name?"
		}
		a.logger.Error("doctor resolution failed", "call_id", a.callID, "error", err)
		return "I'm having trouble looking that up right now. Could you try again?"
	}
	a.doctor = doc
	a.sess.DoctorPreference = doc.Name
	if a.specialty == nil || a.specialty.ID != doc.SpecialtyID {
		if spec, serr := a.store.GetSpecialty(ctx, doc.SpecialtyID); serr == nil {
			a.specialty = spec
			a.sess.SpecialtyPreference = spec.Name
		}
	}

	slots, err := a.engine.NextAvailableSlots(ctx, doc.ID, a.now(), 3)
	if err != nil {
		a.logger.Error("slot lookup failed", "call_id", a.callID, "doctor_id", doc.ID, "error", err)
		return fmt.Sprintf("%s is a great choice. When would you like to come in?", doc.Name)
	}
	if len(slots) == 0 {
		return fmt.Sprintf("Unfortunately %s has no openings in the next two weeks. Would another doctor work?", doc.Name)
	}
	displays := make([]string, len(slots))
	for i, s := range slots {
		displays[i] = s.Display
	}
	return fmt.Sprintf("%s has openings on %s. Which works for you?", doc.Name, strings.Join(displays, "; "))
}

// BookAppointment parses the requested time and books it atomically. Losing
// the race or asking for an unoffered time degrades to a pending record that
// staff follow up on; the caller's doctor and specialty preferences survive
// for another attempt.
func (a *Agent) BookAppointment(ctx context.Context, dateTimeText string) string {
	if a.doctor == nil {
		return "Which doctor would you like to see? Then I can book a time."
	}

	at, err := booking.ParseRequestedDateTime(dateTimeText, a.now())
	if err != nil {
		a.metrics.ObserveBooking("unparseable", 0)
		// The attempt still leaves a pending record carrying the caller's own
		// words, so the summary and staff email show what was asked for.
		a.sess.Appointment = &session.AppointmentSummary{
			DoctorName: a.doctor.Name,
			Specialty:  a.sess.SpecialtyPreference,
			DateTime:   strings.TrimSpace(dateTimeText),
			Status:     "pending",
			Location:   a.location,
			Reason:     "requested time could not be understood",
		}
		return "I couldn't quite catch that time. Could you give me a date and time, like \"June 16 at 2 PM\"?"
	}

	started := a.now()
	appt, err := a.engine.Book(ctx, a.doctor.ID, a.sess.DatabasePatientID, at, a.sess.MedicalComplaint)
	elapsed := a.now().Sub(started).Seconds()
	if err != nil {
		return a.bookingFailureReply(ctx, at, elapsed, err)
	}

	a.metrics.ObserveBooking("scheduled", elapsed)
	a.sess.AppointmentID = appt.ID
	a.sess.Appointment = &session.AppointmentSummary{
		AppointmentID:   appt.ID,
		DoctorName:      a.doctor.Name,
		Specialty:       a.sess.SpecialtyPreference,
		DateTime:        booking.FormatDateTime(appt.ScheduledFor),
		DurationMinutes: appt.DurationMinutes,
		Status:          "scheduled",
		Location:        a.location,
	}
	return fmt.Sprintf("You're all set! I've booked you with %s on %s at %s.",
		a.doctor.Name, booking.FormatDateTime(appt.ScheduledFor), a.location)
}

func (a *Agent) bookingFailureReply(ctx context.Context, at time.Time, elapsed float64, err error) string {
	pending := &session.AppointmentSummary{
		DoctorName: a.doctor.Name,
		Specialty:  a.sess.SpecialtyPreference,
		DateTime:   booking.FormatDateTime(at),
		Status:     "pending",
		Location:   a.location,
	}
	a.sess.Appointment = pending

	var outcome, lead string
	switch {
	case errors.Is(err, store.ErrSlotConflict):
		outcome = "conflict"
		pending.Reason = "requested time was already taken"
		lead = "I'm sorry, that time was just taken."
	case errors.Is(err, store.ErrSlotUnavailable):
		outcome = "unavailable"
		pending.Reason = "requested time is not offered"
		lead = fmt.Sprintf("%s isn't available at that time.", a.doctor.Name)
	default:
		outcome = "error"
		pending.Reason = "booking could not be saved"
		a.logger.Error("booking persistence failed", "call_id", a.callID, "error", err)
		return "I'm having trouble saving that booking right now. Our staff will call you back to finish scheduling."
	}
	a.metrics.ObserveBooking(outcome, elapsed)

	slots, serr := a.engine.NextAvailableSlots(ctx, a.doctor.ID, a.now(), 3)
	if serr != nil || len(slots) == 0 {
		return lead + " Would a different doctor work for you?"
	}
	displays := make([]string, len(slots))
	for i, s := range slots {
		displays[i] = s.Display
	}
	return fmt.Sprintf("%s The next openings are %s. Would one of those work?", lead, strings.Join(displays, "; "))
}

// CancelAppointment cancels the appointment booked earlier in this call,
// freeing the slot.
func (a *Agent) CancelAppointment(ctx context.Context) string {
	if a.sess.AppointmentID == 0 {
		return "You don't have an appointment booked on this call."
	}
	if err := a.store.CancelAppointment(ctx, a.sess.AppointmentID); err != nil {
		a.logger.Error("cancel failed", "call_id", a.callID, "appointment_id", a.sess.AppointmentID, "error", err)
		return "I couldn't cancel that appointment just now. Our staff will follow up with you."
	}
	a.sess.AppointmentID = 0
	a.sess.Appointment = nil
	return "Your appointment has been canceled."
}

// SendAppointmentConfirmation emails the booked appointment details. An
// explicit address overrides the one on file for this send only.
func (a *Agent) SendAppointmentConfirmation(ctx context.Context, toEmail, toPhone string) string {
	if a.sess.Appointment == nil || a.sess.Appointment.Status != "scheduled" {
		return "There's no booked appointment to confirm yet."
	}
	sess := a.sess
	if toEmail != "" || toPhone != "" {
		override := *a.sess
		if toEmail != "" {
			override.Email = extract.Normalize(toEmail, extract.FieldEmail)
		}
		if toPhone != "" {
			override.Phone = extract.Normalize(toPhone, extract.FieldPhone)
		}
		sess = &override
	}
	if sess.Email == "" {
		return "I don't have an email address for you. Could you give me one?"
	}
	if err := a.notifier.SendAppointmentConfirmation(ctx, sess); err != nil {
		return "I couldn't send the confirmation just now, but your appointment is booked."
	}
	return fmt.Sprintf("A confirmation has been sent to %s.", sess.Email)
}

// GetPatientInfo reads back everything collected so far.
func (a *Agent) GetPatientInfo(ctx context.Context) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", label, value))
		}
	}
	add("Name", a.sess.PatientName)
	add("Date of birth", a.sess.DateOfBirth)
	if a.sess.InsuranceProvider != "" {
		ins := a.sess.InsuranceProvider
		if a.sess.InsuranceID != "" {
			ins += " (" + a.sess.InsuranceID + ")"
		}
		add("Insurance", ins)
	}
	if a.sess.HasReferral {
		ref := "yes"
		if a.sess.ReferredPhysician != "" {
			ref = a.sess.ReferredPhysician
		}
		add("Referral", ref)
	}
	add("Complaint", a.sess.MedicalComplaint)
	add("Address", a.sess.Address)
	add("Phone", a.sess.Phone)
	add("Email", a.sess.Email)
	if len(parts) == 0 {
		return "I don't have any of your information yet."
	}
	info := strings.Join(parts, ". ")
	if a.sess.IsRegistered {
		info += ". (Registered)"
	}
	return info
}

// EndCall runs the wrap-up pipeline: recover anything recoverable from the
// transcript, persist what was confirmed, archive the history, and send the
// summary and confirmation emails. It returns the rendered summary.
func (a *Agent) EndCall(ctx context.Context) string {
	a.recoverIdentityFields()
	a.recoverContactFields()

	if a.sess.IsConfirmed && !a.sess.IsRegistered {
		if err := a.machine.Confirm(ctx, true); err != nil {
			a.logger.Error("end-of-call save failed", "call_id", a.callID, "error", err)
		}
	}

	if err := a.history.Save(ctx, a.callID, a.sess.Turns); err != nil {
		a.logger.Warn("history archive failed", "call_id", a.callID, "error", err)
	}

	text := a.renderer.Build(a.sess)
	if a.notifier != nil {
		if err := a.notifier.SendCallSummary(ctx, a.sess, text); err != nil {
			a.logger.Warn("summary email failed", "call_id", a.callID, "error", err)
		}
		if err := a.notifier.SendAppointmentConfirmation(ctx, a.sess); err != nil {
			a.logger.Warn("confirmation email failed", "call_id", a.callID, "error", err)
		}
	}
	a.logger.Info("call ended",
		"call_id", a.callID,
		"stage", a.sess.Stage.String(),
		"registered", a.sess.IsRegistered,
		"appointment_id", a.sess.AppointmentID)
	return text
}

// recoverIdentityFields fills missing name and date of birth from the
// transcript. Explicitly collected values are never overridden.
func (a *Agent) recoverIdentityFields() {
	if a.sess.PatientName == "" {
		if v, ok := extract.Extract(a.sess.Turns, extract.FieldName); ok {
			a.sess.PatientName = extract.Normalize(v, extract.FieldName)
			a.metrics.ObserveExtractionHit(string(extract.FieldName))
		}
	}
	if a.sess.DateOfBirth == "" {
		if v, ok := extract.Extract(a.sess.Turns, extract.FieldDOB); ok {
			a.sess.DateOfBirth = v
			a.metrics.ObserveExtractionHit(string(extract.FieldDOB))
		}
	}
}

// recoverContactFields fills missing phone and email from the transcript at
// end of call.
func (a *Agent) recoverContactFields() {
	if a.sess.Phone == "" {
		if v, ok := extract.Extract(a.sess.Turns, extract.FieldPhone); ok {
			a.sess.Phone = extract.Normalize(v, extract.FieldPhone)
			a.metrics.ObserveExtractionHit(string(extract.FieldPhone))
		}
	}
	if a.sess.Email == "" {
		if v, ok := extract.Extract(a.sess.Turns, extract.FieldEmail); ok {
			a.sess.Email = extract.Normalize(v, extract.FieldEmail)
			a.metrics.ObserveExtractionHit(string(extract.FieldEmail))
		}
	}
}

func (a *Agent) specialtyNames(ctx context.Context) ([]string, error) {
	specialties, err := a.store.ListSpecialties(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: list specialties: %w", err)
	}
	if len(specialties) == 0 {
		return nil, errors.New("agent: specialty catalog is empty")
	}
	names := make([]string, len(specialties))
	for i, s := range specialties {
		names[i] = s.Name
	}
	return names, nil
}

func (a *Agent) validationReply(err error) string {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("I didn't catch your %s. Could you repeat it?", strings.ReplaceAll(verr.Field, "_", " "))
	}
	return "I didn't catch that. Could you repeat it?"
}
