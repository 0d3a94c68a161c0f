package errors

import "errors"

var (
	ErrMissingBotToken  = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingSender    = errors.New("EMAIL_SENDER environment variable is required")
	ErrMissingPassword  = errors.New("EMAIL_PASSWORD environment variable is required")
	ErrMissingRecipient = errors.New("EMAIL_RECIPIENT environment variable is required")
	ErrUnauthorized     = errors.New("unauthorized user")
)
