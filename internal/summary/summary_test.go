package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assortclinic/clinic-mate/internal/session"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)
}

func newTestRenderer() *Renderer {
	r := New("Assort Medical Clinic", "Assort Medical Clinic Main Campus")
	r.SetClock(fixedClock)
	return r
}

func completedSession() *session.Session {
	sess := session.New()
	sess.PatientName = "John Smith"
	sess.DateOfBirth = "03/15/1985"
	sess.Phone = "(555) 123-4567"
	sess.Email = "john@example.com"
	sess.Address = "123 Main St"
	sess.InsuranceProvider = "Blue Cross"
	sess.InsuranceID = "BC123456"
	sess.MedicalComplaint = "chest pain"
	sess.Stage = session.StageComplete
	sess.IsConfirmed = true
	sess.IsRegistered = true
	sess.DatabasePatientID = 7
	return sess
}

func TestBuildSectionOrderAndValues(t *testing.T) {
	out := newTestRenderer().Build(completedSession())

	assert.Contains(t, out, "CALL SUMMARY - Assort Medical Clinic")
	assert.Contains(t, out, "Generated: Tuesday, June 10, 2025 at 3:30 PM")
	assert.Contains(t, out, "Name:          John Smith")
	assert.Contains(t, out, "Provider:  Blue Cross")
	assert.Contains(t, out, "Chief Complaint: chest pain")
	assert.Contains(t, out, "Saved:     Yes (patient record #7)")
	assert.NotContains(t, out, "WARNING")

	// Sections appear in fixed order.
	order := []string{"PATIENT INFORMATION", "INSURANCE", "MEDICAL", "APPOINTMENT", "REGISTRATION STATUS"}
	last := -1
	for _, section := range order {
		idx := strings.Index(out, section)
		assert.Greater(t, idx, last, section)
		last = idx
	}
}

func TestBuildWarningBannerWhenUnconfirmed(t *testing.T) {
	sess := completedSession()
	sess.IsConfirmed = false
	out := newTestRenderer().Build(sess)
	assert.Contains(t, out, "WARNING: REGISTRATION INCOMPLETE")
}

func TestBuildMissingFieldsRenderAsNotProvided(t *testing.T) {
	out := newTestRenderer().Build(session.New())
	assert.Contains(t, out, "Name:          Not provided")
	assert.Contains(t, out, "Member ID: Not provided")
	assert.Contains(t, out, "Referral:        No")
}

func TestAppointmentSubCases(t *testing.T) {
	r := newTestRenderer()

	t.Run("scheduled", func(t *testing.T) {
		sess := completedSession()
		sess.Appointment = &session.AppointmentSummary{
			AppointmentID:   42,
			DoctorName:      "Dr. Jane Smith",
			Specialty:       "Cardiology",
			DateTime:        "Monday, June 16, 2025 at 2:00 PM",
			DurationMinutes: 30,
			Status:          "scheduled",
		}
		out := r.Build(sess)
		assert.Contains(t, out, "Scheduled (appointment #42)")
		assert.Contains(t, out, "Doctor:    Dr. Jane Smith (Cardiology)")
		assert.Contains(t, out, "Location:  Assort Medical Clinic Main Campus")
	})

	t.Run("pending", func(t *testing.T) {
		sess := completedSession()
		sess.Appointment = &session.AppointmentSummary{
			DoctorName: "Dr. Jane Smith",
			Specialty:  "Cardiology",
			DateTime:   "Monday, June 16, 2025 at 2:00 PM",
			Status:     "pending",
			Reason:     "requested time was already taken",
		}
		out := r.Build(sess)
		assert.Contains(t, out, "PENDING - booking did not complete")
		assert.Contains(t, out, "Reason:    requested time was already taken")
	})

	t.Run("requested but unresolved", func(t *testing.T) {
		sess := completedSession()
		sess.WantsAppointment = true
		sess.SpecialtyPreference = "Cardiology"
		out := r.Build(sess)
		assert.Contains(t, out, "Requested but not scheduled")
		assert.Contains(t, out, "Specialty: Cardiology")
	})

	t.Run("none", func(t *testing.T) {
		out := r.Build(completedSession())
		assert.Contains(t, out, "No appointment requested.")
	})
}
