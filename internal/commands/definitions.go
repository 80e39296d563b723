package commands

import (
	"context"

	"github.com/susu3304/tipbot/internal/db"
)

type handlerFunc func(d *Dispatcher, ctx context.Context, cmd Command, group *db.Group) error

// Definition describes one slash command.
type Definition struct {
	Name        string
	Description string
	// NeedsGroup makes the dispatcher resolve the registered group first.
	NeedsGroup bool
	// AnyChat lets the command run outside groups and without a username.
	AnyChat bool

	handle handlerFunc
}

func Definitions() []Definition {
	return []Definition{
		{
			Name:        "tip",
			Description: "Tip a member: /tip @username amount",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleTip,
		},
		{
			Name:        "batch_tip",
			Description: "Tip several members: /batch_tip @a 1, @b 2",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleBatchTip,
		},
		{
			Name:        "wallet",
			Description: "Receive your wallet key and address privately",
			handle:      (*Dispatcher).handleWallet,
		},
		{
			Name:        "init",
			Description: "Register this group with a reward amount (admins)",
			handle:      (*Dispatcher).handleInit,
		},
		{
			Name:        "register",
			Description: "Create your wallet",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleRegister,
		},
		{
			Name:        "contract",
			Description: "Show the community contract address",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleContract,
		},
		{
			Name:        "balance",
			Description: "Receive your total rewards privately",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleBalance,
		},
		{
			Name:        "community_reward",
			Description: "Show the reward per helpful message",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleCommunityReward,
		},
		{
			Name:        "rewards",
			Description: "Receive your reward history privately",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleRewards,
		},
		{
			Name:        "community_balance",
			Description: "Receive the contract balance privately (admins)",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleCommunityBalance,
		},
		{
			Name:        "set_reward",
			Description: "Change the reward amount (admins)",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleSetReward,
		},
		{
			Name:        "withdraw",
			Description: "Withdraw the contract balance (owner)",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleWithdraw,
		},
		{
			Name:        "fund",
			Description: "Fund the community contract: /fund amount",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleFund,
		},
		{
			Name:        "claim",
			Description: "Claim rewards that could not be paid out",
			NeedsGroup:  true,
			handle:      (*Dispatcher).handleClaim,
		},
		{
			Name:        "help",
			Description: "List commands",
			AnyChat:     true,
			handle:      (*Dispatcher).handleHelp,
		},
		{
			Name:        "start",
			Description: "Start talking to the bot",
			AnyChat:     true,
			handle:      (*Dispatcher).handleHelp,
		},
	}
}
