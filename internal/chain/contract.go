package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/susu3304/tipbot/internal/wallet"
)

// boundContract signs with one wallet and waits for every transaction it sends.
type boundContract struct {
	address common.Address
	bc      *bind.BoundContract
	eth     backend
	signer  *wallet.Wallet
	chainID *big.Int
	timeout time.Duration
}

func (c *Client) bind(addr common.Address, parsed abi.ABI, w *wallet.Wallet) (*boundContract, error) {
	if w == nil {
		return nil, fmt.Errorf("bind %s: no wallet", addr.Hex())
	}
	return &boundContract{
		address: addr,
		bc:      bind.NewBoundContract(addr, parsed, c.eth, c.eth, c.eth),
		eth:     c.eth,
		signer:  w,
		chainID: c.chainID,
		timeout: c.timeout,
	}, nil
}

func (b *boundContract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	opts := &bind.CallOpts{Context: ctx, From: b.signer.Address}
	if err := b.bc.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (b *boundContract) transact(ctx context.Context, value *big.Int, method string, args ...any) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	opts, err := bind.NewKeyedTransactorWithChainID(b.signer.PrivateKey, b.chainID)
	if err != nil {
		return nil, fmt.Errorf("%s: transactor: %w", method, err)
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := b.bc.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return b.wait(ctx, method, tx)
}

func (b *boundContract) wait(ctx context.Context, method string, tx *types.Transaction) (*Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: wait for %s: %w", method, tx.Hash().Hex(), err)
	}
	return &Receipt{
		TxHash:  receipt.TxHash,
		Success: receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

type factoryContract struct {
	*boundContract
}

func (f *factoryContract) CreateCommunity(ctx context.Context, name string, reward *big.Int) (*Receipt, error) {
	return f.transact(ctx, nil, "createCommunity", name, reward)
}

func (f *factoryContract) ContractOf(ctx context.Context, name string) (common.Address, error) {
	out, err := f.call(ctx, "getContract", name)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// RewardType tells reward payouts from tips in a user's history.
type RewardType uint8

const (
	RewardTypeReward RewardType = 0
	RewardTypeTip    RewardType = 1
)

func (t RewardType) String() string {
	if t == RewardTypeReward {
		return "Reward"
	}
	return "TIP"
}

type RewardEntry struct {
	Timestamp time.Time
	Type      RewardType
	From      common.Address
	Amount    *big.Int
}

// rewardTuple mirrors the ABI tuple returned by getUserRewards.
type rewardTuple struct {
	Timestamp  *big.Int
	RewardType uint8
	From       common.Address
	Amount     *big.Int
}

type communityContract struct {
	*boundContract
}

func (c *communityContract) Address() common.Address {
	return c.address
}

func (c *communityContract) Tip(ctx context.Context, to common.Address, value *big.Int) (*Receipt, error) {
	return c.transact(ctx, value, "tip", to)
}

func (c *communityContract) BatchTip(ctx context.Context, to []common.Address, values []*big.Int, total *big.Int) (*Receipt, error) {
	if len(to) != len(values) {
		return nil, fmt.Errorf("batchTip: %d receivers but %d amounts", len(to), len(values))
	}
	return c.transact(ctx, total, "batchTip", to, values)
}

func (c *communityContract) Reward(ctx context.Context, to common.Address) (*Receipt, error) {
	return c.transact(ctx, nil, "reward", to)
}

func (c *communityContract) BatchReward(ctx context.Context, to []common.Address) (*Receipt, error) {
	return c.transact(ctx, nil, "batchReward", to)
}

func (c *communityContract) SetRewardAmount(ctx context.Context, value *big.Int) (*Receipt, error) {
	return c.transact(ctx, nil, "setRewardAmount", value)
}

func (c *communityContract) Withdraw(ctx context.Context) (*Receipt, error) {
	return c.transact(ctx, nil, "withdraw")
}

func (c *communityContract) Fund(ctx context.Context, value *big.Int) (*Receipt, error) {
	return c.transact(ctx, value, "fund")
}

func (c *communityContract) uint(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (c *communityContract) UserBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.uint(ctx, "getUserBalance", user)
}

func (c *communityContract) RewardValue(ctx context.Context) (*big.Int, error) {
	return c.uint(ctx, "getRewardValue")
}

func (c *communityContract) ContractBalance(ctx context.Context) (*big.Int, error) {
	return c.uint(ctx, "getContractBalance")
}

func (c *communityContract) UserRewards(ctx context.Context, user common.Address) ([]RewardEntry, error) {
	out, err := c.call(ctx, "getUserRewards", user)
	if err != nil {
		return nil, err
	}
	tuples := *abi.ConvertType(out[0], new([]rewardTuple)).(*[]rewardTuple)

	entries := make([]RewardEntry, 0, len(tuples))
	for _, t := range tuples {
		entries = append(entries, RewardEntry{
			Timestamp: time.Unix(t.Timestamp.Int64(), 0).UTC(),
			Type:      RewardType(t.RewardType),
			From:      t.From,
			Amount:    t.Amount,
		})
	}
	return entries, nil
}
