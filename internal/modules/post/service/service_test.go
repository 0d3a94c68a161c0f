package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	mailDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
)

type fakeDownloader struct {
	failNames map[string]bool
	sizes     map[string]int64
}

func (f *fakeDownloader) DownloadAll(ctx context.Context, attachments []domain.Attachment, dir string) ([]domain.Attachment, int) {
	var downloaded []domain.Attachment
	omitted := 0
	for _, att := range attachments {
		if f.failNames[att.Name] {
			omitted++
			continue
		}
		path := filepath.Join(dir, att.Name)
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			omitted++
			continue
		}
		if size := f.sizes[att.Name]; size > 0 {
			// Sparse file, big enough for the size check without the bytes.
			os.Truncate(path, size)
		}
		att.LocalPath = path
		downloaded = append(downloaded, att)
	}
	return downloaded, omitted
}

type fakeDispatcher struct {
	sent    []*mailDomain.Email
	missing []string
	err     error
}

func (f *fakeDispatcher) Send(email *mailDomain.Email) error {
	if f.err != nil {
		return f.err
	}
	// The staged files must still exist at dispatch time.
	for _, path := range email.AttachmentPaths {
		if _, err := os.Stat(path); err != nil {
			f.missing = append(f.missing, path)
		}
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeMessenger) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, params.Text)
	return &models.Message{}, nil
}

func (f *fakeMessenger) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newTestService(t *testing.T, downloader *fakeDownloader, dispatcher *fakeDispatcher) (*Service, *fakeMessenger, string) {
	t.Helper()
	tempRoot := t.TempDir()
	cfg := &config.Config{TempDir: tempRoot}
	svc := New(cfg, downloader, dispatcher)
	messenger := &fakeMessenger{}
	svc.SetBot(messenger)
	return svc, messenger, tempRoot
}

func assertNoLeftoverFiles(t *testing.T, tempRoot string) {
	t.Helper()
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		t.Fatalf("read temp root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d working directories left behind after relay", len(entries))
	}
}

func albumPost(names ...string) *domain.Post {
	post := &domain.Post{
		ChatID:    42,
		MessageID: 7,
		AlbumID:   "g1",
		HTMLParts: []string{"<p>caption</p>"},
	}
	for _, name := range names {
		post.Attachments = append(post.Attachments, domain.Attachment{
			Kind:   domain.MediaKindPhoto,
			FileID: "file-" + name,
			Name:   name,
		})
	}
	return post
}

func TestRelayAlbumSendsOneEmail(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc, messenger, tempRoot := newTestService(t, &fakeDownloader{}, dispatcher)

	report, err := svc.Relay(context.Background(), albumPost("a.jpg", "b.jpg", "c.jpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(dispatcher.sent))
	}
	if got := len(dispatcher.sent[0].AttachmentPaths); got != 3 {
		t.Errorf("attachments in email = %d, want 3", got)
	}
	if len(dispatcher.missing) != 0 {
		t.Errorf("attachments missing at dispatch time: %v", dispatcher.missing)
	}
	if report.Attached != 3 || report.Omitted != 0 {
		t.Errorf("report = %+v, want 3 attached, 0 omitted", report)
	}
	if !strings.HasPrefix(dispatcher.sent[0].Subject, "Telegram post - ") {
		t.Errorf("subject = %q", dispatcher.sent[0].Subject)
	}

	texts := messenger.all()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "✅") {
		t.Errorf("replies = %v, want single confirmation", texts)
	}
	if svc.Relayed() != 1 || svc.Failed() != 0 {
		t.Errorf("counters = %d relayed, %d failed", svc.Relayed(), svc.Failed())
	}
	assertNoLeftoverFiles(t, tempRoot)
}

func TestRelayPartialDownloadFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	downloader := &fakeDownloader{failNames: map[string]bool{"b.jpg": true}}
	svc, messenger, tempRoot := newTestService(t, downloader, dispatcher)

	report, err := svc.Relay(context.Background(), albumPost("a.jpg", "b.jpg", "c.jpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(dispatcher.sent))
	}
	email := dispatcher.sent[0]
	if got := len(email.AttachmentPaths); got != 2 {
		t.Errorf("attachments in email = %d, want 2", got)
	}
	if !strings.Contains(email.HTMLBody, "1 attachment could not be retrieved and was omitted.") {
		t.Errorf("omission note missing from body:\n%s", email.HTMLBody)
	}
	if report.Attached != 2 || report.Omitted != 1 {
		t.Errorf("report = %+v, want 2 attached, 1 omitted", report)
	}
	if texts := messenger.all(); len(texts) != 1 || !strings.HasPrefix(texts[0], "✅") {
		t.Errorf("replies = %v", texts)
	}
	assertNoLeftoverFiles(t, tempRoot)
}

func TestRelayDispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("smtp: connection refused")}
	svc, messenger, tempRoot := newTestService(t, &fakeDownloader{}, dispatcher)

	_, err := svc.Relay(context.Background(), albumPost("a.jpg"))
	if err == nil {
		t.Fatal("expected error when dispatch fails")
	}

	texts := messenger.all()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "❌") {
		t.Errorf("replies = %v, want single failure notice", texts)
	}
	if svc.Relayed() != 0 || svc.Failed() != 1 {
		t.Errorf("counters = %d relayed, %d failed", svc.Relayed(), svc.Failed())
	}
	assertNoLeftoverFiles(t, tempRoot)
}

func TestRelayWarnsAboutOversizedAttachments(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	downloader := &fakeDownloader{sizes: map[string]int64{"big.mp4": WarnAttachmentBytes + 1}}
	svc, messenger, tempRoot := newTestService(t, downloader, dispatcher)

	report, err := svc.Relay(context.Background(), albumPost("big.mp4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Oversized) != 1 || report.Oversized[0] != "big.mp4" {
		t.Errorf("Oversized = %v, want [big.mp4]", report.Oversized)
	}

	texts := messenger.all()
	if len(texts) != 2 {
		t.Fatalf("replies = %v, want warning then confirmation", texts)
	}
	if !strings.HasPrefix(texts[0], "⚠️") || !strings.Contains(texts[0], "big.mp4") {
		t.Errorf("warning = %q", texts[0])
	}
	if !strings.HasPrefix(texts[1], "✅") {
		t.Errorf("confirmation = %q", texts[1])
	}
	// The oversized attachment is still sent.
	if len(dispatcher.sent) != 1 || len(dispatcher.sent[0].AttachmentPaths) != 1 {
		t.Error("oversized attachment was not sent")
	}
	assertNoLeftoverFiles(t, tempRoot)
}

func TestRelayTextOnlyPost(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc, _, tempRoot := newTestService(t, &fakeDownloader{}, dispatcher)

	post := &domain.Post{
		ChatID:    42,
		MessageID: 7,
		HTMLParts: []string{"<p>Hello <strong>there</strong></p>"},
	}
	if _, err := svc.Relay(context.Background(), post); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(dispatcher.sent))
	}
	email := dispatcher.sent[0]
	if len(email.AttachmentPaths) != 0 {
		t.Errorf("attachments = %v, want none", email.AttachmentPaths)
	}
	if !strings.Contains(email.HTMLBody, "<p>Hello <strong>there</strong></p>") {
		t.Errorf("body missing rendered text:\n%s", email.HTMLBody)
	}
	assertNoLeftoverFiles(t, tempRoot)
}

func TestOversizeWarningTruncatesList(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	warning := oversizeWarning(names)

	if !strings.Contains(warning, "and 2 more") {
		t.Errorf("warning = %q, want truncation note", warning)
	}
	if strings.Contains(warning, "f,") || strings.Contains(warning, "g.") {
		t.Errorf("warning lists more than five names: %q", warning)
	}
}
