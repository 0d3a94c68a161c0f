package domain

import "time"

// Post represents one unit of relayed content: either a single Telegram
// message or a whole media group merged back into one logical post.
type Post struct {
	ChatID      int64
	MessageID   int
	Date        time.Time
	AlbumID     string
	HTMLParts   []string
	Attachments []Attachment
}

// Attachment represents one media file carried by a post. LocalPath is
// empty until the file has been downloaded.
type Attachment struct {
	Kind      MediaKind
	FileID    string
	UniqueID  string
	Name      string
	LocalPath string
}

// RelayReport summarizes what happened to a post's attachments on its
// way into the outgoing email.
type RelayReport struct {
	Attached  int
	Omitted   int
	Oversized []string
}
