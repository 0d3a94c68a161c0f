package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	"github.com/samber/lo"
)

// Collector buffers album parts until their media group is complete.
type Collector interface {
	Add(part *domain.Post)
	Pending() int
}

// Relay turns a completed post into an outgoing email.
type Relay interface {
	Relay(ctx context.Context, post *domain.Post) (*domain.RelayReport, error)
	Relayed() int64
	Failed() int64
}

// Handler handles Telegram bot interactions
type Handler struct {
	cfg       *config.Config
	collector Collector
	relay     Relay
	started   time.Time
}

// New creates a new Telegram handler
func New(cfg *config.Config, collector Collector, relay Relay) *Handler {
	return &Handler{
		cfg:       cfg,
		collector: collector,
		relay:     relay,
		started:   time.Now(),
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
}

// HandleUpdate processes incoming updates that did not match a command
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}
	h.process(ctx, msg)
}

// process routes one message: album parts are buffered until their group
// is complete, everything else is relayed right away.
func (h *Handler) process(ctx context.Context, msg *models.Message) {
	if isServiceMessage(msg) {
		return
	}
	if !h.checkAuthorization(senderID(msg)) {
		slog.Debug("Ignoring message from unauthorized sender", "chat_id", msg.Chat.ID)
		return
	}

	post := FromMessage(msg)
	if len(post.HTMLParts) == 0 && len(post.Attachments) == 0 {
		// Stickers, polls, locations and other content the relay does not carry.
		slog.Debug("Ignoring message without relayable content", "chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}

	if post.AlbumID != "" {
		h.collector.Add(post)
		slog.Info("Album part buffered", "chat_id", post.ChatID, "group_id", post.AlbumID)
		return
	}

	if _, err := h.relay.Relay(ctx, post); err != nil {
		slog.Error("Error relaying post", "error", err, "chat_id", post.ChatID, "message_id", post.MessageID)
	}
}

// checkAuthorization reports whether the sender may use the relay. An
// empty allowlist leaves the bot open to everyone.
func (h *Handler) checkAuthorization(userID int64) bool {
	if len(h.cfg.AllowedUsers) == 0 {
		return true
	}
	return lo.Contains(h.cfg.AllowedUsers, userID)
}

func senderID(msg *models.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(senderID(update.Message)) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ You are not authorized to use this bot.",
		})
		return
	}

	text := `👋 Welcome!

Forward me any Telegram post (text, photo, video, an album, or a file) and I will send it to the configured email inbox with formatting and attachments preserved.

Available commands:
/help - How the relay works
/status - Show relay status

Note: attachments over 25MB may be rejected by the mail server.`

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(senderID(update.Message)) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ You are not authorized to use this bot.",
		})
		return
	}

	text := `How to use:
1. Forward any message or post to this chat (text, photo, video, or a mix).
2. I download the media, keep the text formatting, and send everything to the configured email address.
3. Albums are gathered for a moment so all their photos end up in one email.

If an attachment is larger than 25MB the mail server may reject the email - I will warn you and try anyway.`

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(senderID(update.Message)) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ You are not authorized to use this bot.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   h.statusText(),
	})
}

func (h *Handler) statusText() string {
	return fmt.Sprintf(`📊 Relay Status:

Uptime: %s
Pending albums: %d
Relayed: %d
Failed: %d
Recipient: %s
Album quiet window: %s
Environment: %s`,
		time.Since(h.started).Round(time.Second),
		h.collector.Pending(),
		h.relay.Relayed(),
		h.relay.Failed(),
		maskEmail(h.cfg.EmailRecipient),
		h.cfg.AlbumFlushDelay(),
		h.cfg.AppEnv)
}

// maskEmail hides most of the local part so the status replies do not
// leak the full recipient address into chats.
func maskEmail(addr string) string {
	at := strings.IndexByte(addr, '@')
	if at <= 1 {
		return addr
	}
	return addr[:1] + "***" + addr[at:]
}
