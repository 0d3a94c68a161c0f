package telegram

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/go-telegram/bot/models"
)

// renderEntities converts message text with Telegram formatting entities
// into HTML. Entity offsets count UTF-16 code units, not bytes or runes,
// so the text is processed in that encoding.
func renderEntities(text string, entities []models.MessageEntity) string {
	if text == "" {
		return ""
	}
	units := utf16.Encode([]rune(text))

	sorted := make([]models.MessageEntity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}
		// On equal offsets the longer entity is the outer one.
		return sorted[i].Length > sorted[j].Length
	})

	var b strings.Builder
	renderSpan(&b, units, 0, len(units), sorted)
	return b.String()
}

// renderSpan writes units[start:end) interleaving the given entities.
// Telegram guarantees proper nesting: an entity starting inside another
// is fully contained by it.
func renderSpan(b *strings.Builder, units []uint16, start, end int, entities []models.MessageEntity) {
	pos := start
	i := 0
	for i < len(entities) {
		ent := entities[i]
		entStart := ent.Offset
		entEnd := ent.Offset + ent.Length
		if entStart >= end {
			break
		}
		if ent.Length <= 0 || entStart < pos {
			// Malformed or overlapping entity, render its range as plain text.
			i++
			continue
		}
		if entEnd > end {
			entEnd = end
		}

		writeUnits(b, units[pos:entStart])

		// Entities starting inside this one are its children.
		j := i + 1
		for j < len(entities) && entities[j].Offset < entEnd {
			j++
		}

		open, closing := entityTags(ent)
		b.WriteString(open)
		renderSpan(b, units, entStart, entEnd, entities[i+1:j])
		b.WriteString(closing)

		pos = entEnd
		i = j
	}
	writeUnits(b, units[pos:end])
}

func writeUnits(b *strings.Builder, units []uint16) {
	if len(units) == 0 {
		return
	}
	b.WriteString(escapeHTML(string(utf16.Decode(units))))
}

// entityTags maps one Telegram entity to its HTML opening and closing
// tags. Unknown entity types render as plain text.
func entityTags(ent models.MessageEntity) (string, string) {
	switch ent.Type {
	case "bold":
		return "<strong>", "</strong>"
	case "italic":
		return "<em>", "</em>"
	case "underline":
		return "<u>", "</u>"
	case "strikethrough":
		return "<s>", "</s>"
	case "spoiler":
		return `<span class="tg-spoiler">`, "</span>"
	case "code":
		return "<code>", "</code>"
	case "pre":
		if ent.Language != "" {
			return fmt.Sprintf(`<pre><code class="language-%s">`, escapeHTML(ent.Language)), "</code></pre>"
		}
		return "<pre>", "</pre>"
	case "text_link":
		return fmt.Sprintf(`<a href="%s">`, escapeHTML(ent.URL)), "</a>"
	case "text_mention":
		if ent.User != nil {
			return fmt.Sprintf(`<a href="tg://user?id=%d">`, ent.User.ID), "</a>"
		}
		return "", ""
	case "blockquote", "expandable_blockquote":
		return "<blockquote>", "</blockquote>"
	default:
		return "", ""
	}
}

func escapeHTML(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '<':
			result = append(result, []rune("&lt;")...)
		case '>':
			result = append(result, []rune("&gt;")...)
		case '&':
			result = append(result, []rune("&amp;")...)
		case '"':
			result = append(result, []rune("&quot;")...)
		case '\'':
			result = append(result, []rune("&#39;")...)
		default:
			result = append(result, r)
		}
	}
	return string(result)
}
