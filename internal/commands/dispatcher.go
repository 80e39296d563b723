// Package commands implements the chat commands, the reaction prompt for
// free text and the reaction callbacks, independent of the chat transport.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
	"github.com/susu3304/tipbot/internal/rewards"
	"github.com/susu3304/tipbot/internal/wallet"
)

type User struct {
	ID       int64
	Username string
}

type Chat struct {
	ID    int64
	Type  string
	Title string
}

// IsGroup reports whether the bot serves this kind of chat.
func (c Chat) IsGroup() bool {
	switch c.Type {
	case "group", "supergroup", "channel":
		return true
	}
	return false
}

// Command is a slash command addressed to the bot.
type Command struct {
	Name      string
	Args      string
	From      User
	Chat      Chat
	MessageID int
}

// Text is an ordinary chat message.
type Text struct {
	From      User
	Chat      Chat
	MessageID int
	IsPoll    bool
}

// Callback is a press on one of the reaction buttons. PromptID is the bot's
// prompt carrying the buttons and TargetID the message it replied to.
type Callback struct {
	ID       string
	From     User
	Chat     Chat
	PromptID int
	TargetID int
	Data     string
}

const (
	Like    = "LIKE"
	Dislike = "DISLIKE"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
	SendDirect(ctx context.Context, userID int64, text string) error
	Administrators(ctx context.Context, chatID int64) ([]int64, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
	PromptReaction(ctx context.Context, chatID int64, replyTo int) error
	BotUsername() string
}

type Store interface {
	GetGroup(ctx context.Context, id int64) (*db.Group, error)
	UpdateGroupTitle(ctx context.Context, id int64, title string) error
	GetUser(ctx context.Context, username string) (*db.User, error)
	CreateUser(ctx context.Context, username, encryptionKey string) (bool, error)
	CreateMessage(ctx context.Context, groupID int64, messageID, author string) error
	WithTx(ctx context.Context, fn func(q *db.Queries) error) error
}

type Chain interface {
	Factory(w *wallet.Wallet) (chain.Factory, error)
	Community(ctx context.Context, w *wallet.Wallet, name string) (chain.Community, error)
}

type Rewards interface {
	React(ctx context.Context, r rewards.Reaction) (rewards.Result, error)
	Claim(ctx context.Context, groupID int64, username string) (rewards.ClaimResult, error)
}

type KeyCreator interface {
	Create(passphrase string) (string, error)
}

type Options struct {
	Store     Store
	Chain     Chain
	Rewards   Rewards
	Keys      KeyCreator
	Messenger Messenger
	Logger    logging.Logger
	// ExplorerURI prefixes transaction hashes in tip replies when set.
	ExplorerURI string
}

type Dispatcher struct {
	store    Store
	chain    Chain
	rewards  Rewards
	keys     KeyCreator
	msg      Messenger
	logger   logging.Logger
	explorer string
	handlers map[string]Definition
}

func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		store:    opts.Store,
		chain:    opts.Chain,
		rewards:  opts.Rewards,
		keys:     opts.Keys,
		msg:      opts.Messenger,
		logger:   opts.Logger,
		explorer: strings.TrimRight(opts.ExplorerURI, "/"),
		handlers: make(map[string]Definition),
	}
	for _, def := range Definitions() {
		d.handlers[def.Name] = def
	}
	return d
}

// Dispatch runs the handler registered for cmd.Name. Unknown commands are
// ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) {
	def, ok := d.handlers[cmd.Name]
	if !ok {
		return
	}
	if !cmd.Chat.IsGroup() && !def.AnyChat {
		return
	}

	logger := d.logger.With("command", cmd.Name, "chat_id", cmd.Chat.ID, "from", cmd.From.Username)

	var group *db.Group
	if def.NeedsGroup {
		var err error
		group, err = d.requireGroup(ctx, cmd.Chat, cmd.MessageID)
		if err != nil {
			logger.Error(ctx, "group lookup failed", "error", err)
			return
		}
		if group == nil {
			return
		}
	}
	if cmd.From.Username == "" && !def.AnyChat {
		return
	}

	if err := def.handle(d, ctx, cmd, group); err != nil {
		logger.Error(ctx, "command failed", "error", err)
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, chain.Reason(err))
	}
}

// requireGroup returns the registered group for chat, or nil after telling
// the chat it is not registered.
func (d *Dispatcher) requireGroup(ctx context.Context, c Chat, replyTo int) (*db.Group, error) {
	group, err := d.store.GetGroup(ctx, c.ID)
	if errors.Is(err, db.ErrNotFound) {
		d.reply(ctx, c.ID, replyTo, fmt.Sprintf("%s IS NOT REGISTERED WITH BOT", c.Title))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if c.Title != "" && c.Title != group.Title {
		if err := d.store.UpdateGroupTitle(ctx, c.ID, c.Title); err != nil {
			d.logger.Warn(ctx, "refresh group title", "chat_id", c.ID, "error", err)
		}
		group.Title = c.Title
	}
	return group, nil
}

// requireAdmin tells non-admins off and reports whether cmd may proceed.
func (d *Dispatcher) requireAdmin(ctx context.Context, cmd Command) (bool, error) {
	admins, err := d.msg.Administrators(ctx, cmd.Chat.ID)
	if err != nil {
		return false, fmt.Errorf("chat administrators: %w", err)
	}
	for _, id := range admins {
		if id == cmd.From.ID {
			return true, nil
		}
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgUnauthorized)
	return false, nil
}

// userWallet opens the custodial wallet of username. A nil wallet with a
// nil error means the user is not registered.
func (d *Dispatcher) userWallet(ctx context.Context, username string) (*wallet.Wallet, error) {
	user, err := d.store.GetUser(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wallet.Open(user.EncryptionKey, user.Username)
}

// senderCommunity resolves the group's community contract signed by the
// invoker. It replies and returns nil when that is impossible.
func (d *Dispatcher) senderCommunity(ctx context.Context, cmd Command, group *db.Group) (chain.Community, *wallet.Wallet, error) {
	w, err := d.userWallet(ctx, cmd.From.Username)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNotRegistered)
		return nil, nil, nil
	}
	community, err := d.chain.Community(ctx, w, group.Name)
	if errors.Is(err, chain.ErrCommunityNotFound) {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgTxFailed)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return community, w, nil
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, replyTo int, text string) {
	if err := d.msg.Reply(ctx, chatID, replyTo, text); err != nil {
		d.logger.Error(ctx, "send reply", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) direct(ctx context.Context, userID int64, text string) {
	if err := d.msg.SendDirect(ctx, userID, text); err != nil {
		d.logger.Error(ctx, "send direct message", "user_id", userID, "error", err)
	}
}

// replyReceipt reports the outcome of a state-changing call.
func (d *Dispatcher) replyReceipt(ctx context.Context, cmd Command, r *chain.Receipt, success string) {
	if !r.Success {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgTxFailed)
		return
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, success)
}

func failureText(reason string) string {
	if reason == "" {
		return msgTxFailed
	}
	return msgTxFailed + " REASON: " + reason
}
