package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/assortclinic/clinic-mate/internal/session"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

// Service sends the end-of-call emails: the full summary to clinic staff and,
// when the caller left an email address, an appointment confirmation to the
// caller. Email is best-effort; failures are logged and never bubble into the
// call flow.
type Service struct {
	email      EmailSender
	clinicName string
	recipient  string
	logger     *logging.Logger
}

// NewService creates a notification service delivering staff mail to
// recipient.
func NewService(email EmailSender, clinicName, recipient string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		clinicName: clinicName,
		recipient:  recipient,
		logger:     logger.Component("notify"),
	}
}

// SendCallSummary delivers the rendered call summary to the staff inbox.
func (s *Service) SendCallSummary(ctx context.Context, sess *session.Session, summaryText string) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("summary email skipped, no sender or recipient configured")
		return nil
	}
	subject := fmt.Sprintf("Call Summary - %s", callerLabel(sess))
	if !sess.IsRegistered {
		subject = "[FOLLOW UP] " + subject
	}
	msg := EmailMessage{
		To:      s.recipient,
		ToName:  s.clinicName + " Staff",
		Subject: subject,
		Body:    summaryText,
		HTML:    "<pre>" + html.EscapeString(summaryText) + "</pre>",
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("summary email failed", "session_id", sess.ID.String(), "error", err)
		return fmt.Errorf("notify: summary email: %w", err)
	}
	return nil
}

// SendAppointmentConfirmation emails the caller their scheduled appointment
// details. It is a no-op unless the session carries both a caller email and a
// scheduled appointment.
func (s *Service) SendAppointmentConfirmation(ctx context.Context, sess *session.Session) error {
	if s.email == nil || sess.Email == "" {
		return nil
	}
	appt := sess.Appointment
	if appt == nil || appt.Status != "scheduled" {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", callerLabel(sess))
	fmt.Fprintf(&body, "Your appointment at %s is confirmed.\n\n", s.clinicName)
	fmt.Fprintf(&body, "Doctor:   %s (%s)\n", appt.DoctorName, appt.Specialty)
	fmt.Fprintf(&body, "When:     %s\n", appt.DateTime)
	fmt.Fprintf(&body, "Duration: %d minutes\n", appt.DurationMinutes)
	if appt.Location != "" {
		fmt.Fprintf(&body, "Location: %s\n", appt.Location)
	}
	body.WriteString("\nPlease arrive 15 minutes early and bring your insurance card.\n")
	fmt.Fprintf(&body, "\n%s\n", s.clinicName)

	msg := EmailMessage{
		To:      sess.Email,
		ToName:  sess.PatientName,
		Subject: fmt.Sprintf("Appointment Confirmation - %s", s.clinicName),
		Body:    body.String(),
		HTML:    confirmationHTML(s.clinicName, sess),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("confirmation email failed", "session_id", sess.ID.String(), "error", err)
		return fmt.Errorf("notify: confirmation email: %w", err)
	}
	return nil
}

func confirmationHTML(clinicName string, sess *session.Session) string {
	appt := sess.Appointment
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(clinicName))
	fmt.Fprintf(&b, "<p>Dear %s,</p>", html.EscapeString(callerLabel(sess)))
	b.WriteString("<p>Your appointment is confirmed.</p><ul>")
	fmt.Fprintf(&b, "<li><b>Doctor:</b> %s (%s)</li>",
		html.EscapeString(appt.DoctorName), html.EscapeString(appt.Specialty))
	fmt.Fprintf(&b, "<li><b>When:</b> %s</li>", html.EscapeString(appt.DateTime))
	fmt.Fprintf(&b, "<li><b>Duration:</b> %d minutes</li>", appt.DurationMinutes)
	if appt.Location != "" {
		fmt.Fprintf(&b, "<li><b>Location:</b> %s</li>", html.EscapeString(appt.Location))
	}
	b.WriteString("</ul><p>Please arrive 15 minutes early and bring your insurance card.</p>")
	b.WriteString("</body></html>")
	return b.String()
}

func callerLabel(sess *session.Session) string {
	if sess.PatientName != "" {
		return sess.PatientName
	}
	return "Unknown Caller"
}
