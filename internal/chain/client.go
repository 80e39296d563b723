// Package chain talks to the community factory and the per-community
// contracts over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/susu3304/tipbot/internal/wallet"
)

// ErrCommunityNotFound is returned when the factory has no contract for a name.
var ErrCommunityNotFound = errors.New("community contract not found")

// Receipt is the outcome of a state-changing call once it has been included.
type Receipt struct {
	TxHash  common.Hash
	Success bool
}

type Factory interface {
	CreateCommunity(ctx context.Context, name string, reward *big.Int) (*Receipt, error)
	ContractOf(ctx context.Context, name string) (common.Address, error)
}

type Community interface {
	Address() common.Address
	Tip(ctx context.Context, to common.Address, value *big.Int) (*Receipt, error)
	BatchTip(ctx context.Context, to []common.Address, values []*big.Int, total *big.Int) (*Receipt, error)
	Reward(ctx context.Context, to common.Address) (*Receipt, error)
	BatchReward(ctx context.Context, to []common.Address) (*Receipt, error)
	UserBalance(ctx context.Context, user common.Address) (*big.Int, error)
	RewardValue(ctx context.Context) (*big.Int, error)
	UserRewards(ctx context.Context, user common.Address) ([]RewardEntry, error)
	ContractBalance(ctx context.Context) (*big.Int, error)
	SetRewardAmount(ctx context.Context, value *big.Int) (*Receipt, error)
	Withdraw(ctx context.Context) (*Receipt, error)
	Fund(ctx context.Context, value *big.Int) (*Receipt, error)
}

// backend is what bound contracts need: calls, transactions and receipts.
type backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Client struct {
	eth     backend
	closer  func()
	chainID *big.Int
	factory common.Address
	timeout time.Duration
}

type Options struct {
	RPCURL  string
	Factory common.Address
	// ChainID is fetched from the node when nil.
	ChainID *big.Int
	// Timeout bounds each state-changing call including the wait for inclusion.
	Timeout time.Duration
}

func Dial(ctx context.Context, opts Options) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	chainID := opts.ChainID
	if chainID == nil {
		chainID, err = eth.ChainID(ctx)
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
	}

	c := newClient(eth, chainID, opts.Factory, opts.Timeout)
	c.closer = eth.Close
	return c, nil
}

func newClient(eth backend, chainID *big.Int, factory common.Address, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{eth: eth, chainID: chainID, factory: factory, timeout: timeout}
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Factory returns the factory contract acting as w.
func (c *Client) Factory(w *wallet.Wallet) (Factory, error) {
	bc, err := c.bind(c.factory, parsedFactoryABI, w)
	if err != nil {
		return nil, err
	}
	return &factoryContract{bc}, nil
}

// Community resolves the contract registered under name and binds it to w.
func (c *Client) Community(ctx context.Context, w *wallet.Wallet, name string) (Community, error) {
	f, err := c.Factory(w)
	if err != nil {
		return nil, err
	}
	addr, err := f.ContractOf(ctx, name)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: %q", ErrCommunityNotFound, name)
	}
	bc, err := c.bind(addr, parsedCommunityABI, w)
	if err != nil {
		return nil, err
	}
	return &communityContract{bc}, nil
}
