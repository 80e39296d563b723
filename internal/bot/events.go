package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/susu3304/tipbot/internal/commands"
	"github.com/susu3304/tipbot/internal/logging"
)

// SetWebhook points Telegram at url.
func (b *Bot) SetWebhook(ctx context.Context, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	b.logger.Info(ctx, "webhook registered")
	return nil
}

// Poll receives updates by long polling until ctx is done.
func (b *Bot) Poll(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info(ctx, "polling for updates", "bot", b.username)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(context.WithoutCancel(ctx), u)
		}
	}
}

// ServeHTTP accepts webhook deliveries. The update is acknowledged right
// away and handled in the background.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var u tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		b.logger.Warn(r.Context(), "invalid webhook payload", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	b.dispatch(context.WithoutCancel(r.Context()), u)
	w.WriteHeader(http.StatusOK)
}

func (b *Bot) dispatch(ctx context.Context, u tgbotapi.Update) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.HandleUpdate(ctx, u)
	}()
}

// HandleUpdate routes one update to the handler.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	ctx = logging.ContextWith(ctx, "update_id", uuid.NewString(), "telegram_update", u.UpdateID)
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(ctx, "update handler panicked", "panic", r)
		}
	}()

	switch {
	case u.Message != nil:
		b.onMessage(ctx, u.Message)
	case u.ChannelPost != nil:
		b.onMessage(ctx, u.ChannelPost)
	case u.CallbackQuery != nil:
		b.onCallback(ctx, u.CallbackQuery)
	}
}

func (b *Bot) onMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.Chat == nil || (m.From != nil && m.From.IsBot) {
		return
	}
	chat := toChat(m.Chat)
	from := toUser(m.From)

	if m.IsCommand() {
		if !b.addressedToMe(m.CommandWithAt()) {
			return
		}
		b.handler.Dispatch(ctx, commands.Command{
			Name:      m.Command(),
			Args:      strings.TrimSpace(m.CommandArguments()),
			From:      from,
			Chat:      chat,
			MessageID: m.MessageID,
		})
		return
	}
	if strings.HasPrefix(m.Text, "/") || !hasContent(m) {
		return
	}

	b.handler.HandleText(ctx, commands.Text{
		From:      from,
		Chat:      chat,
		MessageID: m.MessageID,
		IsPoll:    m.Poll != nil,
	})
}

func (b *Bot) onCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.Message.Chat == nil {
		return
	}
	cb := commands.Callback{
		ID:       q.ID,
		From:     toUser(q.From),
		Chat:     toChat(q.Message.Chat),
		PromptID: q.Message.MessageID,
		Data:     q.Data,
	}
	if q.Message.ReplyToMessage != nil {
		cb.TargetID = q.Message.ReplyToMessage.MessageID
	}
	b.handler.HandleCallback(ctx, cb)
}

// addressedToMe accepts "/cmd" and "/cmd@thisbot" but not commands meant
// for other bots in the same group.
func (b *Bot) addressedToMe(commandWithAt string) bool {
	_, target, found := strings.Cut(commandWithAt, "@")
	return !found || strings.EqualFold(target, b.username)
}

// hasContent skips service messages such as members joining.
func hasContent(m *tgbotapi.Message) bool {
	return m.Text != "" || m.Caption != "" || m.Poll != nil ||
		m.Photo != nil || m.Document != nil || m.Video != nil ||
		m.Audio != nil || m.Voice != nil || m.Sticker != nil
}

func toChat(c *tgbotapi.Chat) commands.Chat {
	return commands.Chat{ID: c.ID, Type: c.Type, Title: c.Title}
}

func toUser(u *tgbotapi.User) commands.User {
	if u == nil {
		return commands.User{}
	}
	return commands.User{ID: u.ID, Username: u.UserName}
}
