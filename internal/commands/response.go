package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/rewards"
)

func (d *Dispatcher) handleClaim(ctx context.Context, cmd Command, group *db.Group) error {
	res, err := d.rewards.Claim(ctx, group.ID, cmd.From.Username)
	if errors.Is(err, rewards.ErrNoReward) {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgNoReward)
		return nil
	}
	if err != nil {
		return err
	}
	if !res.Paid {
		d.reply(ctx, cmd.Chat.ID, cmd.MessageID, failureText(res.Reason))
		return nil
	}
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, msgClaimSuccess)
	return nil
}

// HandleText prompts members of a registered group to rate a message by
// registered authors.
func (d *Dispatcher) HandleText(ctx context.Context, t Text) {
	if !t.Chat.IsGroup() || t.IsPoll {
		return
	}
	group, err := d.requireGroup(ctx, t.Chat, t.MessageID)
	if err != nil {
		d.logger.Error(ctx, "group lookup failed", "chat_id", t.Chat.ID, "error", err)
		return
	}
	if group == nil || t.From.Username == "" {
		return
	}

	_, err = d.store.GetUser(ctx, t.From.Username)
	if errors.Is(err, db.ErrNotFound) {
		d.direct(ctx, t.From.ID, fmt.Sprintf("ACCOUNT NOT REGISTERED ON %s. REGISTER USING /register COMMAND", t.Chat.Title))
		return
	}
	if err != nil {
		d.logger.Error(ctx, "author lookup failed", "username", t.From.Username, "error", err)
		return
	}

	messageID := strconv.Itoa(t.MessageID)
	if err := d.store.CreateMessage(ctx, group.ID, messageID, t.From.Username); err != nil {
		d.logger.Error(ctx, "store message", "chat_id", group.ID, "message_id", messageID, "error", err)
		return
	}
	if err := d.msg.PromptReaction(ctx, t.Chat.ID, t.MessageID); err != nil {
		d.logger.Error(ctx, "send reaction prompt", "chat_id", group.ID, "error", err)
	}
}

// HandleCallback records a reaction button press and reports a settlement
// to the rated message.
func (d *Dispatcher) HandleCallback(ctx context.Context, cb Callback) {
	if !cb.Chat.IsGroup() || cb.TargetID == 0 {
		return
	}
	if cb.Data != Like && cb.Data != Dislike {
		return
	}
	group, err := d.requireGroup(ctx, cb.Chat, cb.PromptID)
	if err != nil {
		d.logger.Error(ctx, "group lookup failed", "chat_id", cb.Chat.ID, "error", err)
		return
	}
	if group == nil || cb.From.Username == "" {
		return
	}

	res, err := d.rewards.React(ctx, rewards.Reaction{
		GroupID:   group.ID,
		MessageID: strconv.Itoa(cb.TargetID),
		Username:  cb.From.Username,
		Approve:   cb.Data == Like,
	})
	if err != nil {
		d.logger.Error(ctx, "reaction failed", "chat_id", group.ID, "message_id", cb.TargetID, "error", err)
		d.reply(ctx, cb.Chat.ID, cb.TargetID, failureText(chain.Reason(err)))
		d.answer(ctx, cb.ID, msgReactionFailed)
		return
	}

	switch res.Outcome {
	case rewards.Duplicate:
		d.answer(ctx, cb.ID, msgAlreadyReacted)
		return
	case rewards.Settled:
		d.reply(ctx, cb.Chat.ID, cb.TargetID, msgReactionSettled)
	case rewards.Compensated:
		d.reply(ctx, cb.Chat.ID, cb.TargetID, failureText(res.Reason))
	}
	d.answer(ctx, cb.ID, msgReactionRecorded)
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string) {
	if err := d.msg.AnswerCallback(ctx, callbackID, text); err != nil {
		d.logger.Error(ctx, "answer callback", "error", err)
	}
}
