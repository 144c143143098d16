package alert

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications to a chat through a bot.
type Telegram struct {
	api    telegramAPI
	chatID int64
}

// NewTelegram logs the bot in and creates a notifier for chatID.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id not configured")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatTelegram(n))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// formatTelegram renders n as Telegram HTML.
func formatTelegram(n *Notification) string {
	var b strings.Builder
	b.WriteString("🍳 <b>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</b>\n")
	fmt.Fprintf(&b, "Score %.1f · %s\n\n", n.Score, html.EscapeString(n.Source))
	if n.Body != "" {
		b.WriteString("<i>")
		b.WriteString(html.EscapeString(n.Body))
		b.WriteString("</i>\n\n")
	}
	for _, c := range n.TopComments {
		b.WriteString("💬 ")
		b.WriteString(html.EscapeString(truncate(c, 200)))
		b.WriteString("\n")
	}
	if n.URL != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">Open post</a>", html.EscapeString(n.URL))
	}
	return b.String()
}
