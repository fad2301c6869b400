package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
)

// Sender — часть tgbotapi.BotAPI, которой достаточно для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет дайджесты и служебные сообщения в Telegram.
type Notifier struct {
	bot Sender
	log zerolog.Logger
}

// NewNotifier создаёт отправителя.
func NewNotifier(bot Sender, log zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, log: log}
}

// SendDigest отправляет текст в HTML-разметке, разбивая его на части по лимиту Telegram.
func (n *Notifier) SendDigest(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, chatID, text, tgbotapi.ModeHTML)
}

// SendPlain отправляет простой текст.
func (n *Notifier) SendPlain(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, chatID, text, "")
}

func (n *Notifier) send(ctx context.Context, chatID int64, text, parseMode string) error {
	parts := SplitMessage(text)
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = parseMode
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := n.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.TelegramSendErrors.Inc()
			n.log.Error().Err(err).Int64("chat", chatID).Int("part", i+1).Int("parts", len(parts)).Msg("telegram: не удалось отправить сообщение")
			return fmt.Errorf("отправка сообщения в чат %d: %w", chatID, err)
		}
	}
	return nil
}

var _ domain.Notifier = (*Notifier)(nil)
