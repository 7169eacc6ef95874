// Package notify sends a short report after a schedule push.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/rrule"
	"github.com/hray3182/ClassSync/internal/schedule"
)

// Telegram posts push summaries to one chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegram authorizes the bot token. endpoint is the Bot API URL format
// and may be empty for the public API.
func NewTelegram(token string, chatID int64, endpoint string, logger *zap.Logger) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram notifier ready", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))
	return &Telegram{api: api, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) NotifyPush(_ context.Context, summary schedule.PushSummary) error {
	parsed := renderMarkdown(FormatPush(summary))
	msg := tgbotapi.NewMessage(t.chatID, parsed.Text)
	msg.Entities = parsed.Entities

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatPush renders a summary in the small markdown subset renderMarkdown
// understands.
func FormatPush(s schedule.PushSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Schedule pushed to %s**\n", s.Provider)
	fmt.Fprintf(&b, "%s to %s\n\n", s.StartDate, s.EndDate)

	for _, r := range s.Results {
		if r.Event != nil {
			fmt.Fprintf(&b, "✓ `%s` %s, %s\n", r.ClassName, r.Event.TimeSlot, rrule.Describe(r.Event.RecurrenceRule))
			continue
		}
		fmt.Fprintf(&b, "✗ `%s`: %s\n", r.ClassName, r.Kind)
	}

	fmt.Fprintf(&b, "\nCreated %d, failed %d", s.Created, s.Failed)
	return b.String()
}
