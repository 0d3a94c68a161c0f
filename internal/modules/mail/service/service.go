package service

import (
	"log/slog"
	"time"

	"github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	"github.com/samber/oops"
	gomail "gopkg.in/gomail.v2"
)

// Service delivers composed emails over SMTP
type Service struct {
	cfg  *config.Config
	dial func() (gomail.SendCloser, error)
}

// New creates a mail service. Port 465 makes the dialer use implicit SSL,
// which is what Gmail's smtp.gmail.com expects.
func New(cfg *config.Config) *Service {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSender, cfg.EmailPassword)
	return &Service{
		cfg:  cfg,
		dial: dialer.Dial,
	}
}

// Build assembles the MIME message for one outgoing email.
func (s *Service) Build(email *domain.Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.EmailSender)
	m.SetHeader("To", s.cfg.EmailRecipient)
	m.SetHeader("Subject", email.Subject)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/html", email.HTMLBody)

	for _, path := range email.AttachmentPaths {
		m.Attach(path)
	}

	return m
}

// Send builds and delivers the email to the configured recipient.
func (s *Service) Send(email *domain.Email) error {
	m := s.Build(email)

	sender, err := s.dial()
	if err != nil {
		return oops.With("smtp_host", s.cfg.SMTPHost, "smtp_port", s.cfg.SMTPPort).Wrap(err)
	}
	defer sender.Close()

	if err := gomail.Send(sender, m); err != nil {
		return oops.With("recipient", s.cfg.EmailRecipient).Wrap(err)
	}

	slog.Info("Email sent", "recipient", s.cfg.EmailRecipient, "attachments", len(email.AttachmentPaths))
	return nil
}
