package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	albumService "github.com/reshetovitsme/email-telegram-relay/internal/modules/album/service"
	mailService "github.com/reshetovitsme/email-telegram-relay/internal/modules/mail/service"
	mediaService "github.com/reshetovitsme/email-telegram-relay/internal/modules/media/service"
	postDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
	postService "github.com/reshetovitsme/email-telegram-relay/internal/modules/post/service"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/email-telegram-relay/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/email-telegram-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Service names for dependency injection
const (
	ServiceConfig          = "config"
	ServiceMediaService    = "media-service"
	ServiceMailService     = "mail-service"
	ServicePostService     = "post-service"
	ServiceAlbumCollector  = "album-collector"
	ServiceTelegramHandler = "telegram-handler"
	ServiceHTTPServer      = "http-server"
	ServiceBot             = "bot"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Media Service
	do.Provide(injector, func(i do.Injector) (*mediaService.Service, error) {
		return mediaService.New(), nil
	})

	// Register Mail Service
	do.Provide(injector, func(i do.Injector) (*mailService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mailService.New(cfg), nil
	})

	// Register Post Service
	do.Provide(injector, func(i do.Injector) (*postService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		media := do.MustInvoke[*mediaService.Service](i)
		mail := do.MustInvoke[*mailService.Service](i)
		return postService.New(cfg, media, mail), nil
	})

	// Register Album Collector (flushes completed albums into the post service)
	do.Provide(injector, func(i do.Injector) (*albumService.Collector, error) {
		cfg := do.MustInvoke[*config.Config](i)
		posts := do.MustInvoke[*postService.Service](i)

		// Flushes run on timer goroutines long after the update handler
		// returned, so they carry their own context.
		sink := func(post *postDomain.Post) {
			if _, err := posts.Relay(context.Background(), post); err != nil {
				slog.Error("Error relaying album", "error", err, "chat_id", post.ChatID, "group_id", post.AlbumID)
			}
		}
		return albumService.New(cfg.AlbumFlushDelay(), sink), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		collector := do.MustInvoke[*albumService.Collector](i)
		posts := do.MustInvoke[*postService.Service](i)
		return telegramHandler.New(cfg, collector, posts), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		collector := do.MustInvoke[*albumService.Collector](i)
		posts := do.MustInvoke[*postService.Service](i)
		server := httpServer.New(cfg, collector, posts)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// The post and media services talk back through the bot
		posts := do.MustInvoke[*postService.Service](i)
		posts.SetBot(b)
		media := do.MustInvoke[*mediaService.Service](i)
		media.SetClient(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Flush albums still waiting for their quiet window. The flush relays
	// through the bot, so it must finish before the bot is closed.
	if collector, err := do.Invoke[*albumService.Collector](injector); err == nil && collector != nil {
		collector.Stop()
	}

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	return nil
}
