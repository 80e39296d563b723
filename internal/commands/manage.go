package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/wallet"
)

// errNotIncluded rolls back the init transaction when the community
// creation was mined but reverted.
var errNotIncluded = errors.New("community creation reverted")

func (d *Dispatcher) registeredText() string {
	return fmt.Sprintf("USER REGISTERED. HEAD ON TO @%s AND START CONVERSATION TO ENJOY BOT FEATURES.", d.msg.BotUsername())
}

// register creates a wallet for username unless one exists. It reports
// whether a new account was created.
func (d *Dispatcher) register(ctx context.Context, username string) (*db.User, bool, error) {
	user, err := d.store.GetUser(ctx, username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, err
	}

	key, err := d.keys.Create(username)
	if err != nil {
		return nil, false, err
	}
	created, err := d.store.CreateUser(ctx, username, key)
	if err != nil {
		return nil, false, err
	}
	if !created {
		user, err := d.store.GetUser(ctx, username)
		return user, false, err
	}
	d.logger.Info(ctx, "user registered", "username", username)
	return &db.User{Username: username, EncryptionKey: key}, true, nil
}

func (d *Dispatcher) handleRegister(ctx context.Context, cmd Command, _ *db.Group) error {
	_, created, err := d.register(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if !created {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgAccountExists)
		return nil
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, d.registeredText())
	return nil
}

func (d *Dispatcher) handleWallet(ctx context.Context, cmd Command, _ *db.Group) error {
	w, err := d.userWallet(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if w == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNotRegistered)
		return nil
	}
	d.direct(ctx, cmd.From.ID, fmt.Sprintf("PRIVATE_KEY: %s\n\nWALLET_ADDRESS: %s", w.PrivateKeyHex(), w.Address.Hex()))
	return nil
}

// handleInit registers the chat as a group owned by the invoker and creates
// its community contract. The group row only survives if the contract
// creation succeeds.
func (d *Dispatcher) handleInit(ctx context.Context, cmd Command, _ *db.Group) error {
	arg := strings.TrimSpace(cmd.Args)
	reward, ok := parseAmount(arg)
	if !ok {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, invalidAmount(arg))
		return nil
	}
	if ok, err := d.requireAdmin(ctx, cmd); err != nil || !ok {
		return err
	}

	owner, created, err := d.register(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if created {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, d.registeredText())
	}

	_, err = d.store.GetGroup(ctx, cmd.Chat.ID)
	if err == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgGroupExists)
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	w, err := wallet.Open(owner.EncryptionKey, owner.Username)
	if err != nil {
		return err
	}
	factory, err := d.chain.Factory(w)
	if err != nil {
		return err
	}

	var receipt *chain.Receipt
	err = d.store.WithTx(ctx, func(q *db.Queries) error {
		if err := q.CreateGroup(ctx, cmd.Chat.ID, cmd.Chat.Title, owner.Username); err != nil {
			return err
		}
		r, err := factory.CreateCommunity(ctx, cmd.Chat.Title, reward)
		if err != nil {
			return err
		}
		receipt = r
		if !r.Success {
			return errNotIncluded
		}
		return nil
	})
	if errors.Is(err, errNotIncluded) {
		d.logger.Warn(ctx, "community creation reverted", "chat_id", cmd.Chat.ID, "tx", receipt.TxHash.Hex())
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgTxFailed)
		return nil
	}
	if err != nil {
		return err
	}

	d.logger.Info(ctx, "group initialized", "chat_id", cmd.Chat.ID, "name", cmd.Chat.Title, "tx", receipt.TxHash.Hex())
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgInitialized)
	return nil
}
