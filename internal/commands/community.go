package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
)

const historyDateLayout = "Jan 2, 2006, 03:04 PM MST"

func (d *Dispatcher) handleContract(ctx context.Context, cmd Command, group *db.Group) error {
	w, err := d.userWallet(ctx, cmd.From.Username)
	if err != nil {
		return err
	}
	if w == nil {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNotRegistered)
		return nil
	}
	factory, err := d.chain.Factory(w)
	if err != nil {
		return err
	}
	addr, err := factory.ContractOf(ctx, group.Name)
	if err != nil {
		return err
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, "COMMUNITY CONTRACT ADDRESS: "+addr.Hex())
	return nil
}

func (d *Dispatcher) handleBalance(ctx context.Context, cmd Command, group *db.Group) error {
	community, w, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	balance, err := community.UserBalance(ctx, w.Address)
	if err != nil {
		return err
	}
	d.direct(ctx, cmd.From.ID, fmt.Sprintf("TOTAL REWARDS EARNED at @%s: %s", cmd.Chat.Title, chain.FormatEther(balance)))
	return nil
}

func (d *Dispatcher) handleCommunityReward(ctx context.Context, cmd Command, group *db.Group) error {
	community, _, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	value, err := community.RewardValue(ctx)
	if err != nil {
		return err
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, "COMMUNITY REWARD IS: "+chain.FormatEther(value))
	return nil
}

func (d *Dispatcher) handleRewards(ctx context.Context, cmd Command, group *db.Group) error {
	community, w, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	entries, err := community.UserRewards(ctx, w.Address)
	if err != nil {
		return err
	}
	d.direct(ctx, cmd.From.ID, formatHistory(cmd.Chat.Title, entries))
	return nil
}

func formatHistory(title string, entries []chain.RewardEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "REWARDS FROM @%s\n\n", title)
	for _, e := range entries {
		fmt.Fprintf(&b, "Date: %s\nType: %s\nFrom: %s\nAmount: %s\n\n",
			e.Timestamp.In(time.UTC).Format(historyDateLayout),
			e.Type,
			e.From.Hex(),
			chain.FormatEther(e.Amount))
	}
	return b.String()
}

func (d *Dispatcher) handleCommunityBalance(ctx context.Context, cmd Command, group *db.Group) error {
	if ok, err := d.requireAdmin(ctx, cmd); err != nil || !ok {
		return err
	}
	community, _, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	balance, err := community.ContractBalance(ctx)
	if err != nil {
		return err
	}
	d.direct(ctx, cmd.From.ID, fmt.Sprintf("CONTRACT BALANCE at @%s: %s", cmd.Chat.Title, chain.FormatEther(balance)))
	return nil
}

func (d *Dispatcher) handleSetReward(ctx context.Context, cmd Command, group *db.Group) error {
	arg := strings.TrimSpace(cmd.Args)
	value, ok := parseAmount(arg)
	if !ok {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, invalidAmount(arg))
		return nil
	}
	if ok, err := d.requireAdmin(ctx, cmd); err != nil || !ok {
		return err
	}
	community, _, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	receipt, err := community.SetRewardAmount(ctx, value)
	if err != nil {
		return err
	}
	d.replyReceipt(ctx, cmd, receipt, msgRewardSet)
	return nil
}

func (d *Dispatcher) handleWithdraw(ctx context.Context, cmd Command, group *db.Group) error {
	community, _, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	receipt, err := community.Withdraw(ctx)
	if err != nil {
		return err
	}
	d.replyReceipt(ctx, cmd, receipt, msgWithdrawSuccess)
	return nil
}

func (d *Dispatcher) handleFund(ctx context.Context, cmd Command, group *db.Group) error {
	arg := strings.TrimSpace(cmd.Args)
	value, ok := parseAmount(arg)
	if !ok {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, invalidAmount(arg))
		return nil
	}
	community, _, err := d.senderCommunity(ctx, cmd, group)
	if err != nil || community == nil {
		return err
	}
	receipt, err := community.Fund(ctx, value)
	if err != nil {
		return err
	}
	d.replyReceipt(ctx, cmd, receipt, msgFundSuccess)
	return nil
}
