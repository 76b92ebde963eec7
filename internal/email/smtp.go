package email

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/glowclinic/booking-api/internal/model"
)

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SMTPService sends mail over SMTP via gomail.
type SMTPService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) *SMTPService {
	return &SMTPService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPService) SendLoginOTP(_ context.Context, to, code string) error {
	body := fmt.Sprintf("Your login code is %s. It expires in 5 minutes.", code)
	return s.send(to, "Your login code", body)
}

func (s *SMTPService) SendBookingConfirmation(_ context.Context, b *model.Booking) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s appointment is confirmed.\n\nReference: %s\nDate: %s at %s\nBranch: %s\nAmount: %.2f\n\nSee you there!",
		b.CustomerName, b.TreatmentName, b.BookingReference,
		b.AppointmentDate.Format("2 Jan 2006"), b.AppointmentTime, b.Location, b.TotalAmount,
	)
	return s.send(b.CustomerEmail, "Booking confirmed: "+b.BookingReference, body)
}

func (s *SMTPService) SendBookingCancellation(_ context.Context, b *model.Booking) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking %s for %s on %s at %s has been cancelled.",
		b.CustomerName, b.BookingReference, b.TreatmentName,
		b.AppointmentDate.Format("2 Jan 2006"), b.AppointmentTime,
	)
	return s.send(b.CustomerEmail, "Booking cancelled: "+b.BookingReference, body)
}

func (s *SMTPService) SendBookingReschedule(_ context.Context, b *model.Booking) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking %s has been rescheduled to %s at %s (%s branch).",
		b.CustomerName, b.BookingReference,
		b.AppointmentDate.Format("2 Jan 2006"), b.AppointmentTime, b.Location,
	)
	return s.send(b.CustomerEmail, "Booking rescheduled: "+b.BookingReference, body)
}

func (s *SMTPService) SendCheckoutOTP(_ context.Context, b *model.Booking, code string, eligibleAt time.Time) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou are checked in for %s.\nCheckout code: %s\nSelf-checkout opens at %s.",
		b.CustomerName, b.TreatmentName, code, eligibleAt.Format("15:04"),
	)
	return s.send(b.CustomerEmail, "Checked in: "+b.BookingReference, body)
}

func (s *SMTPService) SendReminder(_ context.Context, b *model.Booking, kind model.ReminderKind) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nReminder: your %s appointment is on %s at %s (%s branch).\nReference: %s",
		b.CustomerName, b.TreatmentName,
		b.AppointmentDate.Format("2 Jan 2006"), b.AppointmentTime, b.Location, b.BookingReference,
	)
	return s.send(b.CustomerEmail, fmt.Sprintf("Appointment reminder (%s)", kind), body)
}
