package domain

// Key identifies one in-flight media group. Telegram media group IDs are
// only unique within a chat, so the chat ID is part of the key.
type Key struct {
	ChatID  int64
	GroupID string
}
