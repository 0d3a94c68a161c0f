package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

const documentTemplate = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Telegram Post</title>
</head>
<body>
  <div style="font-family: Arial, sans-serif; font-size: 14px; line-height: 1.45;">
    %s
  </div>
</body>
</html>
`

// ComposeDocument wraps the rendered parts of a post into a standalone
// HTML document for the email body. Album captions arrive as separate
// parts and are kept visually separated with a horizontal rule. A note is
// appended when attachments had to be omitted.
func ComposeDocument(parts []string, omitted int) string {
	sections := lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		if part == "" {
			return "", false
		}
		return "<div>" + part + "</div>", true
	})

	body := strings.Join(sections, "<hr>")
	if body == "" {
		body = "<div>(no text)</div>"
	}

	if omitted > 0 {
		note := fmt.Sprintf("%d attachments could not be retrieved and were omitted.", omitted)
		if omitted == 1 {
			note = "1 attachment could not be retrieved and was omitted."
		}
		body += "<p><em>" + note + "</em></p>"
	}

	return fmt.Sprintf(documentTemplate, body)
}

// Subject returns the subject line for a post relayed at the given time.
func Subject(t time.Time) string {
	return "Telegram post - " + t.Format("2006-01-02 15:04:05")
}
