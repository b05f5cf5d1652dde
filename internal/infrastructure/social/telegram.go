package social

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

const telegramTextLimit = 4096

// sender is the subset of tgbotapi.BotAPI used for channel posts.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts the short-form variant to a channel via bot API.
type Telegram struct {
	bot      sender
	chatID   int64
	username string
}

var _ Poster = (*Telegram)(nil)

// NewTelegram authenticates the bot; the channel is addressed by username when set, chat id otherwise.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegram(bot, cfg)
}

func newTelegram(bot sender, cfg config.TelegramConfig) (*Telegram, error) {
	t := &Telegram{bot: bot, username: strings.TrimPrefix(cfg.ChannelUsername, "@")}
	if t.username == "" {
		id, err := strconv.ParseInt(strings.TrimSpace(cfg.ChatID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram chat id %q: %w", cfg.ChatID, err)
		}
		t.chatID = id
	}
	return t, nil
}

// Platform identifies the destination.
func (t *Telegram) Platform() domain.Platform { return domain.PlatformTelegram }

// Post sends the message and returns its public link.
func (t *Telegram) Post(ctx context.Context, post domain.SocialPost) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := ComposeText(post, telegramTextLimit)
	var msg tgbotapi.MessageConfig
	if t.username != "" {
		msg = tgbotapi.NewMessageToChannel("@"+t.username, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}

	sent, err := t.bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", err)
	}
	return t.messageURL(sent), nil
}

func (t *Telegram) messageURL(m tgbotapi.Message) string {
	username := t.username
	if m.Chat != nil && m.Chat.UserName != "" {
		username = m.Chat.UserName
	}
	if username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", username, m.MessageID)
	}
	chatID := t.chatID
	if m.Chat != nil {
		chatID = m.Chat.ID
	}
	// Private channel links drop the -100 prefix of the chat id.
	internal := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", internal, m.MessageID)
}
