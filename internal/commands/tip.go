package commands

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
)

func (d *Dispatcher) handleTip(ctx context.Context, cmd Command, group *db.Group) error {
	target, problem := parseTip(cmd.Args)
	if problem != "" {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, problem)
		return nil
	}

	sender, err := d.userWallet(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if sender == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNotRegistered)
		return nil
	}
	receiver, err := d.userWallet(ctx, target.Username)
	if err != nil {
		return err
	}
	if receiver == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgReceiverUnknown)
		return nil
	}

	community, err := d.chain.Community(ctx, sender, group.Name)
	if errors.Is(err, chain.ErrCommunityNotFound) {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgTxFailed)
		return nil
	}
	if err != nil {
		return err
	}

	receipt, err := community.Tip(ctx, receiver.Address, target.Amount)
	if err != nil {
		return err
	}
	d.replyReceipt(ctx, cmd, receipt, d.tipSuccess(receipt))
	return nil
}

func (d *Dispatcher) handleBatchTip(ctx context.Context, cmd Command, group *db.Group) error {
	targets, total, problems := parseBatchTip(cmd.Args)
	if len(problems) > 0 {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, strings.Join(problems, "\n"))
		return nil
	}

	sender, err := d.userWallet(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if sender == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNotRegistered)
		return nil
	}

	receivers := make([]common.Address, 0, len(targets))
	amounts := make([]*big.Int, 0, len(targets))
	var unknown []string
	for _, t := range targets {
		w, err := d.userWallet(ctx, t.Username)
		if err != nil {
			return err
		}
		if w == nil {
			unknown = append(unknown, fmt.Sprintf("RECEIVER '%s' IS NOT REGISTERED.", t.Username))
			continue
		}
		receivers = append(receivers, w.Address)
		amounts = append(amounts, t.Amount)
	}
	if len(unknown) > 0 {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, strings.Join(unknown, "\n"))
		return nil
	}

	community, err := d.chain.Community(ctx, sender, group.Name)
	if errors.Is(err, chain.ErrCommunityNotFound) {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgTxFailed)
		return nil
	}
	if err != nil {
		return err
	}

	receipt, err := community.BatchTip(ctx, receivers, amounts, total)
	if err != nil {
		return err
	}
	d.replyReceipt(ctx, cmd, receipt, d.tipSuccess(receipt))
	return nil
}

func (d *Dispatcher) tipSuccess(r *chain.Receipt) string {
	if d.explorer == "" {
		return msgTipSuccess
	}
	return fmt.Sprintf("%s %s/%s", msgTipSuccess, d.explorer, r.TxHash.Hex())
}
