package telegram

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
)

// FromMessage converts one Telegram message into a relay post. An album
// item keeps its media group ID so the collector can merge the parts back
// into a single post.
func FromMessage(msg *models.Message) *domain.Post {
	post := &domain.Post{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Date:      time.Unix(int64(msg.Date), 0),
		AlbumID:   msg.MediaGroupID,
	}

	if html := renderText(msg); html != "" {
		post.HTMLParts = append(post.HTMLParts, html)
	}
	if att, ok := extractAttachment(msg); ok {
		post.Attachments = append(post.Attachments, att)
	}
	return post
}

// renderText renders the message text, or the media caption when there is
// no text, with its formatting entities applied.
func renderText(msg *models.Message) string {
	if msg.Text != "" {
		return strings.TrimSpace(renderEntities(msg.Text, msg.Entities))
	}
	if msg.Caption != "" {
		return strings.TrimSpace(renderEntities(msg.Caption, msg.CaptionEntities))
	}
	return ""
}

// extractAttachment picks the media carried by the message. A Telegram
// message holds at most one media item; album photos arrive as separate
// messages.
func extractAttachment(msg *models.Message) (domain.Attachment, bool) {
	var att domain.Attachment

	switch {
	case len(msg.Photo) > 0:
		// Photo sizes are ordered smallest to largest.
		photo := msg.Photo[len(msg.Photo)-1]
		att = domain.Attachment{
			Kind:     domain.MediaKindPhoto,
			FileID:   photo.FileID,
			UniqueID: photo.FileUniqueID,
			Name:     "photo_" + photo.FileUniqueID + ".jpg",
		}
	case msg.Video != nil:
		att = domain.Attachment{
			Kind:     domain.MediaKindVideo,
			FileID:   msg.Video.FileID,
			UniqueID: msg.Video.FileUniqueID,
			Name:     "video_" + msg.Video.FileUniqueID + extensionOr(msg.Video.FileName, ".mp4"),
		}
	case msg.Document != nil:
		name := msg.Document.FileName
		if name == "" {
			name = "document_" + msg.Document.FileUniqueID
		}
		att = domain.Attachment{
			Kind:     domain.MediaKindDocument,
			FileID:   msg.Document.FileID,
			UniqueID: msg.Document.FileUniqueID,
			Name:     name,
		}
	case msg.Animation != nil:
		att = domain.Attachment{
			Kind:     domain.MediaKindAnimation,
			FileID:   msg.Animation.FileID,
			UniqueID: msg.Animation.FileUniqueID,
			Name:     "animation_" + msg.Animation.FileUniqueID + extensionOr(msg.Animation.FileName, ".mp4"),
		}
	case msg.Audio != nil:
		att = domain.Attachment{
			Kind:     domain.MediaKindAudio,
			FileID:   msg.Audio.FileID,
			UniqueID: msg.Audio.FileUniqueID,
			Name:     "audio_" + msg.Audio.FileUniqueID + extensionOr(msg.Audio.FileName, ".mp3"),
		}
	case msg.Voice != nil:
		att = domain.Attachment{
			Kind:     domain.MediaKindVoice,
			FileID:   msg.Voice.FileID,
			UniqueID: msg.Voice.FileUniqueID,
			Name:     "voice_" + msg.Voice.FileUniqueID + ".ogg",
		}
	default:
		return domain.Attachment{}, false
	}

	att.Name = sanitizeFilename(att.Name)
	return att, true
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]`)

// sanitizeFilename keeps letters, digits, dots, dashes and underscores so
// the name is safe both on disk and as a MIME attachment name.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

func extensionOr(fileName, fallback string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return fallback
}

// isServiceMessage reports whether the message is chat housekeeping
// (members joining or leaving) rather than relayable content.
func isServiceMessage(msg *models.Message) bool {
	return len(msg.NewChatMembers) > 0 || msg.LeftChatMember != nil
}
