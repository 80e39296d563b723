// Package bot connects the command dispatcher to Telegram.
package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/susu3304/tipbot/internal/commands"
	"github.com/susu3304/tipbot/internal/logging"
)

// telegram is the part of *tgbotapi.BotAPI the bot uses.
type telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler receives the events the bot decodes from updates.
type Handler interface {
	Dispatch(ctx context.Context, cmd commands.Command)
	HandleText(ctx context.Context, t commands.Text)
	HandleCallback(ctx context.Context, cb commands.Callback)
}

type Bot struct {
	api      telegram
	username string
	logger   logging.Logger
	handler  Handler

	wg sync.WaitGroup
}

// New connects to Telegram with token and returns a bot without a handler.
func New(token string, logger logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return newBot(api, api.Self.UserName, logger), nil
}

func newBot(api telegram, username string, logger logging.Logger) *Bot {
	return &Bot{api: api, username: username, logger: logger}
}

// SetHandler installs the handler updates are routed to. It must be called
// before updates arrive.
func (b *Bot) SetHandler(h Handler) {
	b.handler = h
}

// Wait blocks until every in-flight update has been handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) BotUsername() string {
	return b.username
}

func (b *Bot) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	return b.sendWithRetry(ctx, msg)
}

func (b *Bot) SendDirect(ctx context.Context, userID int64, text string) error {
	return b.sendWithRetry(ctx, tgbotapi.NewMessage(userID, text))
}

func (b *Bot) PromptReaction(ctx context.Context, chatID int64, replyTo int) error {
	msg := tgbotapi.NewMessage(chatID, commands.ReactionPrompt)
	msg.ReplyToMessageID = replyTo
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍", commands.Like),
			tgbotapi.NewInlineKeyboardButtonData("👎", commands.Dislike),
		),
	)
	return b.sendWithRetry(ctx, msg)
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (b *Bot) Administrators(_ context.Context, chatID int64) ([]int64, error) {
	members, err := b.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
		}
	}
	return ids, nil
}

// RegisterCommands publishes the command list shown in Telegram clients.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	defs := commands.Definitions()
	list := make([]tgbotapi.BotCommand, 0, len(defs))
	for _, def := range defs {
		list = append(list, tgbotapi.BotCommand{Command: def.Name, Description: def.Description})
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(list...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	b.logger.Info(ctx, "registered bot commands", "count", len(list))
	return nil
}
