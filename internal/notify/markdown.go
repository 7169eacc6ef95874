package notify

import (
	"regexp"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// formatted is message text with its Telegram entities.
type formatted struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// utf16Len counts UTF-16 code units; Telegram entity offsets use them.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

var markupRe = regexp.MustCompile("\\*\\*(.+?)\\*\\*|`([^`]+?)`")

// renderMarkdown converts **bold** and `code` spans into entities. Spans are
// taken left to right and do not nest.
func renderMarkdown(text string) formatted {
	var (
		out      strings.Builder
		entities []tgbotapi.MessageEntity
		last     int
	)
	for _, m := range markupRe.FindAllStringSubmatchIndex(text, -1) {
		out.WriteString(text[last:m[0]])

		kind, inner := "bold", ""
		if m[2] != -1 {
			inner = text[m[2]:m[3]]
		} else {
			kind, inner = "code", text[m[4]:m[5]]
		}
		entities = append(entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: utf16Len(out.String()),
			Length: utf16Len(inner),
		})
		out.WriteString(inner)
		last = m[1]
	}
	out.WriteString(text[last:])

	return formatted{
		Text:     strings.TrimRight(out.String(), " \n"),
		Entities: entities,
	}
}
