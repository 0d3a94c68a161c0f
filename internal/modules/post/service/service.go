package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	mailDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/domain"
	mailService "github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/service"
	"github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// WarnAttachmentBytes is the size above which an attachment is likely to
// be rejected by the receiving mail server. The email is still sent; the
// sender just gets warned first.
const WarnAttachmentBytes = 25 * 1024 * 1024

// Messenger is the slice of the Telegram bot API used for chat feedback.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Ensure *bot.Bot satisfies Messenger
var _ Messenger = (*bot.Bot)(nil)

// Downloader fetches a post's attachments into a working directory.
type Downloader interface {
	DownloadAll(ctx context.Context, attachments []domain.Attachment, dir string) ([]domain.Attachment, int)
}

// Dispatcher delivers one composed email.
type Dispatcher interface {
	Send(email *mailDomain.Email) error
}

// Service turns completed posts into emails
type Service struct {
	cfg        *config.Config
	downloader Downloader
	dispatcher Dispatcher
	bot        Messenger

	relayed atomic.Int64
	failed  atomic.Int64
}

// New creates a post relay service
func New(cfg *config.Config, downloader Downloader, dispatcher Dispatcher) *Service {
	return &Service{
		cfg:        cfg,
		downloader: downloader,
		dispatcher: dispatcher,
	}
}

// SetBot attaches the Telegram client used for chat feedback. The bot is
// constructed after its handlers, so it cannot be passed to New.
func (s *Service) SetBot(b Messenger) {
	s.bot = b
}

// Relayed returns the number of posts relayed successfully
func (s *Service) Relayed() int64 {
	return s.relayed.Load()
}

// Failed returns the number of posts that could not be relayed
func (s *Service) Failed() int64 {
	return s.failed.Load()
}

// Relay downloads the post's attachments, composes the email and sends it.
// Every file staged for the post lives in a directory private to this call
// and is removed before Relay returns, success or not.
func (s *Service) Relay(ctx context.Context, post *domain.Post) (*domain.RelayReport, error) {
	opID := uuid.New().String()
	dir := filepath.Join(s.cfg.TempDir, opID)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.failed.Add(1)
		s.reply(ctx, post, fmt.Sprintf("❌ Failed to send: %v", err))
		return nil, oops.With("dir", dir).Wrap(err)
	}
	defer os.RemoveAll(dir)

	slog.Info("Relaying post", "op_id", opID, "chat_id", post.ChatID, "message_id", post.MessageID, "attachments", len(post.Attachments))

	downloaded, omitted := s.downloader.DownloadAll(ctx, post.Attachments, dir)

	report := &domain.RelayReport{Attached: len(downloaded), Omitted: omitted}
	for _, att := range downloaded {
		if info, err := os.Stat(att.LocalPath); err == nil && info.Size() > WarnAttachmentBytes {
			report.Oversized = append(report.Oversized, att.Name)
		}
	}
	if len(report.Oversized) > 0 {
		s.reply(ctx, post, oversizeWarning(report.Oversized))
	}

	email := &mailDomain.Email{
		Subject:  mailService.Subject(time.Now()),
		HTMLBody: mailService.ComposeDocument(post.HTMLParts, omitted),
		AttachmentPaths: lo.Map(downloaded, func(att domain.Attachment, _ int) string {
			return att.LocalPath
		}),
	}

	if err := s.dispatcher.Send(email); err != nil {
		s.failed.Add(1)
		s.reply(ctx, post, fmt.Sprintf("❌ Failed to send: %v", err))
		return report, oops.With("op_id", opID, "chat_id", post.ChatID).Wrap(err)
	}

	s.relayed.Add(1)
	s.reply(ctx, post, "✅ Sent to email!")
	slog.Info("Post relayed", "op_id", opID, "attached", report.Attached, "omitted", report.Omitted)
	return report, nil
}

func (s *Service) reply(ctx context.Context, post *domain.Post, text string) {
	if s.bot == nil {
		return
	}
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: post.ChatID,
		Text:   text,
	})
	if err != nil {
		slog.Error("Failed to reply in chat", "chat_id", post.ChatID, "error", err)
	}
}

func oversizeWarning(names []string) string {
	shown := names
	extra := ""
	if len(shown) > 5 {
		extra = fmt.Sprintf(" and %d more", len(shown)-5)
		shown = shown[:5]
	}
	return fmt.Sprintf("⚠️ Attachments over 25MB: %s%s. The mail server may reject them, sending anyway.", strings.Join(shown, ", "), extra)
}
