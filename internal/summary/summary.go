// Package summary renders the end-of-call report: everything collected during
// the call, the appointment outcome, and the registration status, in a fixed
// section order so downstream readers (and the confirmation email) can rely
// on it.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/assortclinic/clinic-mate/internal/session"
)

// Renderer builds call summaries. The clock is injectable so reports are
// reproducible in tests.
type Renderer struct {
	clinicName string
	location   string
	now        func() time.Time
}

// New builds a Renderer for the named clinic.
func New(clinicName, location string) *Renderer {
	return &Renderer{clinicName: clinicName, location: location, now: time.Now}
}

// SetClock overrides the report timestamp source.
func (r *Renderer) SetClock(now func() time.Time) { r.now = now }

const notProvided = "Not provided"

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return notProvided
	}
	return v
}

// Build renders the full report for one call session.
func (r *Renderer) Build(sess *session.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CALL SUMMARY - %s\n", r.clinicName)
	fmt.Fprintf(&b, "Generated: %s\n", r.now().Format("Monday, January 2, 2006 at 3:04 PM"))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if !sess.IsConfirmed || !sess.IsRegistered {
		b.WriteString("*** WARNING: REGISTRATION INCOMPLETE ***\n")
		b.WriteString("The caller's information was not fully confirmed or saved.\n")
		b.WriteString("Follow up with the caller to complete registration.\n\n")
	}

	b.WriteString("PATIENT INFORMATION\n")
	fmt.Fprintf(&b, "  Name:          %s\n", orNotProvided(sess.PatientName))
	fmt.Fprintf(&b, "  Date of Birth: %s\n", orNotProvided(sess.DateOfBirth))
	fmt.Fprintf(&b, "  Phone:         %s\n", orNotProvided(sess.Phone))
	fmt.Fprintf(&b, "  Email:         %s\n", orNotProvided(sess.Email))
	fmt.Fprintf(&b, "  Address:       %s\n\n", orNotProvided(sess.Address))

	b.WriteString("INSURANCE\n")
	fmt.Fprintf(&b, "  Provider:  %s\n", orNotProvided(sess.InsuranceProvider))
	fmt.Fprintf(&b, "  Member ID: %s\n\n", orNotProvided(sess.InsuranceID))

	b.WriteString("MEDICAL\n")
	fmt.Fprintf(&b, "  Chief Complaint: %s\n", orNotProvided(sess.MedicalComplaint))
	if sess.HasReferral {
		fmt.Fprintf(&b, "  Referral:        Yes (%s)\n\n", orNotProvided(sess.ReferredPhysician))
	} else {
		b.WriteString("  Referral:        No\n\n")
	}

	b.WriteString("APPOINTMENT\n")
	r.writeAppointment(&b, sess)
	b.WriteString("\n")

	b.WriteString("REGISTRATION STATUS\n")
	fmt.Fprintf(&b, "  Stage:     %s\n", sess.Stage)
	fmt.Fprintf(&b, "  Confirmed: %s\n", yesNo(sess.IsConfirmed))
	if sess.IsRegistered {
		fmt.Fprintf(&b, "  Saved:     Yes (patient record #%d)\n", sess.DatabasePatientID)
	} else {
		b.WriteString("  Saved:     No\n")
	}

	return b.String()
}

// writeAppointment renders one of four outcomes: a scheduled appointment, a
// pending one that failed to book, an unfulfilled request, or no interest.
func (r *Renderer) writeAppointment(b *strings.Builder, sess *session.Session) {
	appt := sess.Appointment
	switch {
	case appt != nil && appt.Status == "scheduled":
		fmt.Fprintf(b, "  Status:    Scheduled (appointment #%d)\n", appt.AppointmentID)
		fmt.Fprintf(b, "  Doctor:    %s (%s)\n", appt.DoctorName, appt.Specialty)
		fmt.Fprintf(b, "  When:      %s\n", appt.DateTime)
		fmt.Fprintf(b, "  Duration:  %d minutes\n", appt.DurationMinutes)
		fmt.Fprintf(b, "  Location:  %s\n", r.locationFor(appt))
	case appt != nil:
		b.WriteString("  Status:    PENDING - booking did not complete\n")
		if appt.DoctorName != "" {
			fmt.Fprintf(b, "  Doctor:    %s (%s)\n", appt.DoctorName, appt.Specialty)
		}
		if appt.DateTime != "" {
			fmt.Fprintf(b, "  Requested: %s\n", appt.DateTime)
		}
		if appt.Reason != "" {
			fmt.Fprintf(b, "  Reason:    %s\n", appt.Reason)
		}
		b.WriteString("  Staff should call back to finish scheduling.\n")
	case sess.WantsAppointment:
		b.WriteString("  Status:    Requested but not scheduled\n")
		if sess.SpecialtyPreference != "" {
			fmt.Fprintf(b, "  Specialty: %s\n", sess.SpecialtyPreference)
		}
		if sess.DoctorPreference != "" {
			fmt.Fprintf(b, "  Doctor:    %s\n", sess.DoctorPreference)
		}
		b.WriteString("  Staff should call back to finish scheduling.\n")
	default:
		b.WriteString("  No appointment requested.\n")
	}
}

func (r *Renderer) locationFor(appt *session.AppointmentSummary) string {
	if appt.Location != "" {
		return appt.Location
	}
	return r.location
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
