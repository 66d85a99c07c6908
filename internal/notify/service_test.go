package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assortclinic/clinic-mate/internal/session"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

func newTestService() (*Service, *StubEmailSender) {
	stub := NewStubEmailSender(logging.New("error"))
	return NewService(stub, "Assort Medical Clinic", "staff@clinic.example", logging.New("error")), stub
}

func TestSendCallSummary(t *testing.T) {
	ctx := context.Background()
	svc, stub := newTestService()

	sess := session.New()
	sess.PatientName = "John Smith"
	sess.IsRegistered = true

	require.NoError(t, svc.SendCallSummary(ctx, sess, "summary body"))
	require.Len(t, stub.Sent, 1)
	msg := stub.Sent[0]
	assert.Equal(t, "staff@clinic.example", msg.To)
	assert.Equal(t, "Call Summary - John Smith", msg.Subject)
	assert.Equal(t, "summary body", msg.Body)
}

func TestSendCallSummaryFlagsIncompleteRegistration(t *testing.T) {
	ctx := context.Background()
	svc, stub := newTestService()

	require.NoError(t, svc.SendCallSummary(ctx, session.New(), "body"))
	require.Len(t, stub.Sent, 1)
	assert.Equal(t, "[FOLLOW UP] Call Summary - Unknown Caller", stub.Sent[0].Subject)
}

func TestSendCallSummarySkippedWithoutRecipient(t *testing.T) {
	stub := NewStubEmailSender(logging.New("error"))
	svc := NewService(stub, "Assort Medical Clinic", "", logging.New("error"))

	require.NoError(t, svc.SendCallSummary(context.Background(), session.New(), "body"))
	assert.Empty(t, stub.Sent)
}

func TestSendAppointmentConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, stub := newTestService()

	sess := session.New()
	sess.PatientName = "John Smith"
	sess.Email = "john@example.com"
	sess.Appointment = &session.AppointmentSummary{
		DoctorName:      "Dr. Jane Smith",
		Specialty:       "Cardiology",
		DateTime:        "Monday, June 16, 2025 at 2:00 PM",
		DurationMinutes: 30,
		Status:          "scheduled",
	}

	require.NoError(t, svc.SendAppointmentConfirmation(ctx, sess))
	require.Len(t, stub.Sent, 1)
	msg := stub.Sent[0]
	assert.Equal(t, "john@example.com", msg.To)
	assert.Contains(t, msg.Body, "Dr. Jane Smith (Cardiology)")
	assert.Contains(t, msg.HTML, "<b>When:</b> Monday, June 16, 2025 at 2:00 PM")
}

func TestSendAppointmentConfirmationSkipsPendingAndMissingEmail(t *testing.T) {
	ctx := context.Background()
	svc, stub := newTestService()

	// No email address collected.
	sess := session.New()
	sess.Appointment = &session.AppointmentSummary{Status: "scheduled"}
	require.NoError(t, svc.SendAppointmentConfirmation(ctx, sess))

	// Pending appointment never confirms.
	sess = session.New()
	sess.Email = "john@example.com"
	sess.Appointment = &session.AppointmentSummary{Status: "pending"}
	require.NoError(t, svc.SendAppointmentConfirmation(ctx, sess))

	assert.Empty(t, stub.Sent)
}
