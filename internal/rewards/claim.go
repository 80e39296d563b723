package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/susu3304/tipbot/internal/chain"
)

var ErrNoReward = errors.New("no pending reward")

type ClaimResult struct {
	Units  int
	Paid   bool
	TxHash common.Hash
	Reason string
}

// Claim pays out every pending reward unit of username in one transfer from
// the group's community contract. The credit is cleared only when the
// transfer succeeds.
func (e *Engine) Claim(ctx context.Context, groupID int64, username string) (ClaimResult, error) {
	unlock := e.users.Lock(username)
	defer unlock()

	units, err := e.store.GetReward(ctx, username)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("pending reward: %w", err)
	}
	if units <= 0 {
		return ClaimResult{}, ErrNoReward
	}

	res := ClaimResult{Units: units}

	community, err := e.community(ctx, groupID)
	if err != nil {
		res.Reason = failureReason(err)
		return res, nil
	}
	to, err := e.address(ctx, username)
	if err != nil {
		return ClaimResult{}, err
	}

	receipt, err := e.payout(ctx, community, to, units)
	if err != nil {
		res.Reason = failureReason(err)
		e.logger.Warn(ctx, "claim transfer failed", "username", username, "units", units, "error", err)
		return res, nil
	}
	res.TxHash = receipt.TxHash
	if !receipt.Success {
		return res, nil
	}

	if err := e.store.ResetReward(ctx, username); err != nil {
		return ClaimResult{}, fmt.Errorf("reset reward: %w", err)
	}
	res.Paid = true
	e.logger.Info(ctx, "reward claimed", "username", username, "units", units, "tx", receipt.TxHash.Hex())
	return res, nil
}

func (e *Engine) payout(ctx context.Context, community chain.Community, to common.Address, units int) (*chain.Receipt, error) {
	if units == 1 {
		return community.Reward(ctx, to)
	}
	recipients := make([]common.Address, units)
	for i := range recipients {
		recipients[i] = to
	}
	return community.BatchReward(ctx, recipients)
}
