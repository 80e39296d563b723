// Package rewards settles message reactions into on-chain rewards and lets
// users claim the credit left behind by failed settlements.
package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
	"github.com/susu3304/tipbot/internal/wallet"
)

// Store is the persistence the engine needs.
type Store interface {
	GetGroup(ctx context.Context, id int64) (*db.Group, error)
	GetUser(ctx context.Context, username string) (*db.User, error)
	GetMessage(ctx context.Context, groupID int64, messageID string) (*db.Message, error)
	ReactionExists(ctx context.Context, groupID int64, messageID, username string) (bool, error)
	CreateReaction(ctx context.Context, groupID int64, messageID, username string, value int) (bool, error)
	CountReactions(ctx context.Context, groupID int64, messageID string) (approvals, rejections int64, err error)
	DeleteReaction(ctx context.Context, groupID int64, messageID, username string) error
	GetReward(ctx context.Context, username string) (int, error)
	IncrementReward(ctx context.Context, username string) (int, error)
	ResetReward(ctx context.Context, username string) error
}

// Communities resolves a community contract bound to a signing wallet.
type Communities interface {
	Community(ctx context.Context, w *wallet.Wallet, name string) (chain.Community, error)
}

type Outcome int

const (
	// Duplicate means the user had already reacted to the message.
	Duplicate Outcome = iota
	// Recorded means the reaction was stored without reaching the threshold.
	Recorded
	// Settled means the author was rewarded on-chain.
	Settled
	// Compensated means the reward transfer failed and the author was
	// credited one pending reward instead.
	Compensated
)

func (o Outcome) String() string {
	switch o {
	case Duplicate:
		return "duplicate"
	case Recorded:
		return "recorded"
	case Settled:
		return "settled"
	case Compensated:
		return "compensated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Reaction struct {
	GroupID   int64
	MessageID string
	Username  string
	Approve   bool
}

type Result struct {
	Outcome     Outcome
	Beneficiary string
	TxHash      common.Hash
	// Reason explains a failed transfer when Outcome is Compensated.
	Reason string
}

type messageKey struct {
	groupID   int64
	messageID string
}

type Engine struct {
	store       Store
	communities Communities
	logger      logging.Logger

	messages *keyedMutex[messageKey]
	users    *keyedMutex[string]
}

func NewEngine(store Store, communities Communities, logger logging.Logger) *Engine {
	return &Engine{
		store:       store,
		communities: communities,
		logger:      logger,
		messages:    newKeyedMutex[messageKey](),
		users:       newKeyedMutex[string](),
	}
}

// React records a reaction and settles the message once approvals lead
// rejections by exactly one.
func (e *Engine) React(ctx context.Context, r Reaction) (Result, error) {
	unlock := e.messages.Lock(messageKey{r.GroupID, r.MessageID})
	defer unlock()

	exists, err := e.store.ReactionExists(ctx, r.GroupID, r.MessageID, r.Username)
	if err != nil {
		return Result{}, fmt.Errorf("check reaction: %w", err)
	}
	if exists {
		return Result{Outcome: Duplicate}, nil
	}

	value := db.ReactionReject
	if r.Approve {
		value = db.ReactionApprove
	}
	inserted, err := e.store.CreateReaction(ctx, r.GroupID, r.MessageID, r.Username, value)
	if err != nil {
		return Result{}, fmt.Errorf("record reaction: %w", err)
	}
	if !inserted {
		return Result{Outcome: Duplicate}, nil
	}

	res, err := e.settle(ctx, r)
	if err != nil {
		return e.recoverReaction(ctx, r, err)
	}
	return res, nil
}

// settle runs once the reaction is stored: it recounts the tally and, at a
// margin of one, pays the author or credits them on failure.
func (e *Engine) settle(ctx context.Context, r Reaction) (Result, error) {
	approvals, rejections, err := e.store.CountReactions(ctx, r.GroupID, r.MessageID)
	if err != nil {
		return Result{}, fmt.Errorf("count reactions: %w", err)
	}
	if approvals-rejections != 1 {
		return Result{Outcome: Recorded}, nil
	}

	msg, err := e.store.GetMessage(ctx, r.GroupID, r.MessageID)
	if err != nil {
		return Result{}, fmt.Errorf("message author: %w", err)
	}

	logger := e.logger.With("group_id", r.GroupID, "message_id", r.MessageID, "author", msg.Author)

	receipt, err := e.reward(ctx, r.GroupID, msg.Author)
	if err == nil && receipt.Success {
		// paid: the outcome stays Settled even if the trigger cannot be removed
		if err := e.store.DeleteReaction(ctx, r.GroupID, r.MessageID, r.Username); err != nil {
			logger.Error(ctx, "clear settled reaction", "username", r.Username, "error", err)
		}
		logger.Info(ctx, "message rewarded", "tx", receipt.TxHash.Hex())
		return Result{Outcome: Settled, Beneficiary: msg.Author, TxHash: receipt.TxHash}, nil
	}

	res, cerr := e.compensate(ctx, msg.Author, failureReason(err))
	if cerr != nil {
		return Result{}, cerr
	}
	if receipt != nil {
		res.TxHash = receipt.TxHash
	}
	return res, nil
}

// recoverReaction handles an error raised after the reaction was stored.
// The inferred author is credited one unit; when that is impossible the
// reaction is removed again so the user can retry.
func (e *Engine) recoverReaction(ctx context.Context, r Reaction, cause error) (Result, error) {
	if !errors.Is(cause, errCredit) {
		msg, err := e.store.GetMessage(ctx, r.GroupID, r.MessageID)
		if err == nil {
			res, cerr := e.compensate(ctx, msg.Author, chain.Reason(cause))
			if cerr == nil {
				e.logger.Warn(ctx, "reaction failed, credited author",
					"group_id", r.GroupID, "message_id", r.MessageID, "author", msg.Author, "error", cause)
				return res, nil
			}
			cause = errors.Join(cause, cerr)
		}
	}

	if err := e.store.DeleteReaction(ctx, r.GroupID, r.MessageID, r.Username); err != nil {
		e.logger.Error(ctx, "remove failed reaction", "group_id", r.GroupID, "message_id", r.MessageID,
			"username", r.Username, "error", err)
	}
	return Result{}, cause
}

var errCredit = errors.New("credit pending reward")

func (e *Engine) compensate(ctx context.Context, author, reason string) (Result, error) {
	unlock := e.users.Lock(author)
	credit, err := e.store.IncrementReward(ctx, author)
	unlock()
	if err != nil {
		return Result{}, fmt.Errorf("%w for %s: %w", errCredit, author, err)
	}
	e.logger.Warn(ctx, "author credited", "author", author, "reason", reason, "credit", credit)
	return Result{Outcome: Compensated, Beneficiary: author, Reason: reason}, nil
}

func (e *Engine) reward(ctx context.Context, groupID int64, author string) (*chain.Receipt, error) {
	community, err := e.community(ctx, groupID)
	if err != nil {
		return nil, err
	}
	to, err := e.address(ctx, author)
	if err != nil {
		return nil, err
	}
	return community.Reward(ctx, to)
}

// community binds the group's contract to the group owner's wallet.
func (e *Engine) community(ctx context.Context, groupID int64) (chain.Community, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", groupID, err)
	}
	owner, err := e.wallet(ctx, group.Owner)
	if err != nil {
		return nil, err
	}
	return e.communities.Community(ctx, owner, group.Name)
}

func (e *Engine) wallet(ctx context.Context, username string) (*wallet.Wallet, error) {
	user, err := e.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", username, err)
	}
	return wallet.Open(user.EncryptionKey, user.Username)
}

func (e *Engine) address(ctx context.Context, username string) (common.Address, error) {
	w, err := e.wallet(ctx, username)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address, nil
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, chain.ErrCommunityNotFound) {
		return ""
	}
	return chain.Reason(err)
}
