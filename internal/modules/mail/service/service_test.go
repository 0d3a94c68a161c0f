package service

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	gomail "gopkg.in/gomail.v2"
)

type fakeSender struct {
	from   string
	to     []string
	data   bytes.Buffer
	err    error
	closed bool
}

func (f *fakeSender) Send(from string, to []string, msg io.WriterTo) error {
	if f.err != nil {
		return f.err
	}
	f.from = from
	f.to = append([]string(nil), to...)
	_, err := msg.WriteTo(&f.data)
	return err
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		EmailSender:    "sender@example.com",
		EmailPassword:  "secret",
		EmailRecipient: "inbox@example.com",
		SMTPHost:       "smtp.example.com",
		SMTPPort:       465,
	}
}

func TestSendDeliversToRecipient(t *testing.T) {
	fake := &fakeSender{}
	svc := &Service{
		cfg:  testConfig(),
		dial: func() (gomail.SendCloser, error) { return fake, nil },
	}

	err := svc.Send(&domain.Email{
		Subject:  "Telegram post - 2024-03-01 15:04:05",
		HTMLBody: "<html><body>hello</body></html>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.from != "sender@example.com" {
		t.Errorf("from = %q, want sender@example.com", fake.from)
	}
	if len(fake.to) != 1 || fake.to[0] != "inbox@example.com" {
		t.Errorf("to = %v, want [inbox@example.com]", fake.to)
	}
	if !fake.closed {
		t.Error("sender was not closed")
	}

	raw := fake.data.String()
	if !strings.Contains(raw, "Subject: Telegram post - 2024-03-01 15:04:05") {
		t.Error("subject header missing from MIME output")
	}
	if !strings.Contains(raw, "Content-Type: text/html") {
		t.Error("html body part missing from MIME output")
	}
}

func TestSendAttachesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo_abc123.jpg")
	if err := os.WriteFile(path, []byte("fake-jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}

	fake := &fakeSender{}
	svc := &Service{
		cfg:  testConfig(),
		dial: func() (gomail.SendCloser, error) { return fake, nil },
	}

	err := svc.Send(&domain.Email{
		Subject:         "with attachment",
		HTMLBody:        "<html><body>see attached</body></html>",
		AttachmentPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := fake.data.String()
	if !strings.Contains(raw, `filename="photo_abc123.jpg"`) {
		t.Errorf("attachment filename missing from MIME output:\n%s", raw)
	}
	if !strings.Contains(raw, "Content-Disposition: attachment") {
		t.Error("attachment disposition missing from MIME output")
	}
}

func TestSendDialFailure(t *testing.T) {
	svc := &Service{
		cfg:  testConfig(),
		dial: func() (gomail.SendCloser, error) { return nil, errors.New("connection refused") },
	}

	if err := svc.Send(&domain.Email{Subject: "s", HTMLBody: "b"}); err == nil {
		t.Fatal("expected error when dial fails")
	}
}

func TestSendDeliveryFailure(t *testing.T) {
	fake := &fakeSender{err: errors.New("550 mailbox unavailable")}
	svc := &Service{
		cfg:  testConfig(),
		dial: func() (gomail.SendCloser, error) { return fake, nil },
	}

	if err := svc.Send(&domain.Email{Subject: "s", HTMLBody: "b"}); err == nil {
		t.Fatal("expected error when delivery fails")
	}
	if !fake.closed {
		t.Error("sender must be closed even on failure")
	}
}
