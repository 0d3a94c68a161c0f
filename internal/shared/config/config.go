package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/email-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	TelegramBotToken  string  `koanf:"telegram_bot_token"`
	TelegramAPIURL    string  `koanf:"telegram_api_url"`
	EmailSender       string  `koanf:"email_sender"`
	EmailPassword     string  `koanf:"email_password"`
	EmailRecipient    string  `koanf:"email_recipient"`
	SMTPHost          string  `koanf:"smtp_host"`
	SMTPPort          int     `koanf:"smtp_port"`
	TempDir           string  `koanf:"temp_dir"`
	AlbumFlushDelayMS int     `koanf:"album_flush_delay_ms"`
	HTTPPort          string  `koanf:"http_port"`
	AllowedUsers      []int64 `koanf:"allowed_users"`
	AppEnv            AppEnv  `koanf:"app_env"`
}

// AlbumFlushDelay returns the quiet window after which a buffered album
// is considered complete.
func (c *Config) AlbumFlushDelay() time.Duration {
	return time.Duration(c.AlbumFlushDelayMS) * time.Millisecond
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("telegram_api_url") {
		k.Set("telegram_api_url", "https://api.telegram.org")
	}
	if !k.Exists("smtp_host") {
		k.Set("smtp_host", "smtp.gmail.com")
	}
	if !k.Exists("smtp_port") {
		k.Set("smtp_port", 465)
	}
	if !k.Exists("temp_dir") {
		k.Set("temp_dir", filepath.Join(os.TempDir(), "email-telegram-relay"))
	}
	if !k.Exists("album_flush_delay_ms") {
		k.Set("album_flush_delay_ms", 1600)
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// allowed_users arrives as a comma-separated string when set through
	// the environment; normalize it before unmarshaling
	if users, ok := k.Get("allowed_users").(string); ok {
		k.Set("allowed_users", ParseAllowedUsers(users))
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Parse AppEnv from string if needed
	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if env, err := ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = env
		} else {
			cfg.AppEnv = AppEnvProduction
		}
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}
	if cfg.EmailSender == "" {
		return nil, errors.ErrMissingSender
	}
	if cfg.EmailPassword == "" {
		return nil, errors.ErrMissingPassword
	}
	if cfg.EmailRecipient == "" {
		return nil, errors.ErrMissingRecipient
	}

	return &cfg, nil
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}
