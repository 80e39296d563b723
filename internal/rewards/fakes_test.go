package rewards

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/wallet"
)

type reactionKey struct {
	groupID   int64
	messageID string
	username  string
}

type memStore struct {
	mu        sync.Mutex
	users     map[string]*db.User
	groups    map[int64]*db.Group
	messages  map[messageKey]*db.Message
	reactions map[reactionKey]int
	rewards   map[string]int
	userReads map[string]int

	// one-shot failures, cleared when returned
	countErr  error
	deleteErr error
	creditErr error
}

func takeErr(err *error) error {
	e := *err
	*err = nil
	return e
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*db.User{},
		groups:    map[int64]*db.Group{},
		messages:  map[messageKey]*db.Message{},
		reactions: map[reactionKey]int{},
		rewards:   map[string]int{},
		userReads: map[string]int{},
	}
}

var testKeystore = wallet.NewKeystore(true)

func (s *memStore) addUser(t *testing.T, username string) common.Address {
	t.Helper()
	key, err := testKeystore.Create(username)
	require.NoError(t, err)
	w, err := wallet.Open(key, username)
	require.NoError(t, err)
	s.users[username] = &db.User{Username: username, EncryptionKey: key}
	return w.Address
}

func (s *memStore) GetGroup(_ context.Context, id int64) (*db.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return g, nil
}

func (s *memStore) GetUser(_ context.Context, username string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userReads[username]++
	u, ok := s.users[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (s *memStore) GetMessage(_ context.Context, groupID int64, messageID string) (*db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageKey{groupID, messageID}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return m, nil
}

func (s *memStore) ReactionExists(_ context.Context, groupID int64, messageID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reactions[reactionKey{groupID, messageID, username}]
	return ok, nil
}

func (s *memStore) CreateReaction(_ context.Context, groupID int64, messageID, username string, value int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := reactionKey{groupID, messageID, username}
	if _, ok := s.reactions[k]; ok {
		return false, nil
	}
	s.reactions[k] = value
	return true, nil
}

func (s *memStore) CountReactions(_ context.Context, groupID int64, messageID string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.countErr); err != nil {
		return 0, 0, err
	}
	var up, down int64
	for k, v := range s.reactions {
		if k.groupID != groupID || k.messageID != messageID {
			continue
		}
		if v == db.ReactionApprove {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}

func (s *memStore) DeleteReaction(_ context.Context, groupID int64, messageID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.deleteErr); err != nil {
		return err
	}
	delete(s.reactions, reactionKey{groupID, messageID, username})
	return nil
}

func (s *memStore) GetReward(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewards[username], nil
}

func (s *memStore) IncrementReward(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.creditErr); err != nil {
		return 0, err
	}
	s.rewards[username]++
	return s.rewards[username], nil
}

func (s *memStore) ResetReward(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[username] = 0
	return nil
}

type fakeCommunity struct {
	chain.Community

	mu      sync.Mutex
	err     error
	failed  bool
	rewards []common.Address
	batches [][]common.Address
}

func (c *fakeCommunity) receipt() (*chain.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &chain.Receipt{TxHash: common.HexToHash("0x01"), Success: !c.failed}, nil
}

func (c *fakeCommunity) Reward(_ context.Context, to common.Address) (*chain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rewards = append(c.rewards, to)
	return c.receipt()
}

func (c *fakeCommunity) BatchReward(_ context.Context, to []common.Address) (*chain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, to)
	return c.receipt()
}

func (c *fakeCommunity) RewardValue(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

type fakeCommunities struct {
	community *fakeCommunity
	names     []string
	signers   []common.Address
}

func (f *fakeCommunities) Community(_ context.Context, w *wallet.Wallet, name string) (chain.Community, error) {
	f.names = append(f.names, name)
	f.signers = append(f.signers, w.Address)
	if f.community == nil {
		return nil, chain.ErrCommunityNotFound
	}
	return f.community, nil
}

var errRevert = errors.New(`execution reverted (reason="Insufficient contract balance")`)
