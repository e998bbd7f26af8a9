// Package telegram delivers digest and notification messages to a set
// of chats.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"monty/internal/log"
)

// Sender broadcasts messages to the configured chat ids.
type Sender struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *log.Logger
}

func NewSender(token string, chatIDs []int64, logger *log.Logger) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Sender{bot: bot, chatIDs: chatIDs, logger: logger.WithComponent(log.ComponentTelegram)}, nil
}

// Broadcast sends the text to every configured chat. Delivery failures
// for individual chats are logged and do not stop the rest.
func (s *Sender) Broadcast(text string) error {
	var lastErr error
	for _, chatID := range s.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "Markdown"
		if _, err := s.bot.Send(msg); err != nil {
			s.logger.Error("failed to send telegram message", "chat_id", chatID, "error", err)
			lastErr = err
			continue
		}
		s.logger.Debug("sent telegram message", "chat_id", chatID)
	}
	return lastErr
}
