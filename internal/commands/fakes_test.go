package commands

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/tipbot/internal/chain"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
	"github.com/susu3304/tipbot/internal/rewards"
	"github.com/susu3304/tipbot/internal/wallet"
)

type sent struct {
	ChatID  int64
	ReplyTo int
	Text    string
}

type fakeMessenger struct {
	mu       sync.Mutex
	replies  []sent
	directs  []sent
	answers  []string
	prompts  []sent
	admins   []int64
	adminErr error
}

func (m *fakeMessenger) Reply(_ context.Context, chatID int64, replyTo int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sent{chatID, replyTo, text})
	return nil
}

func (m *fakeMessenger) SendDirect(_ context.Context, userID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directs = append(m.directs, sent{ChatID: userID, Text: text})
	return nil
}

func (m *fakeMessenger) Administrators(context.Context, int64) ([]int64, error) {
	return m.admins, m.adminErr
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

func (m *fakeMessenger) PromptReaction(_ context.Context, chatID int64, replyTo int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, sent{ChatID: chatID, ReplyTo: replyTo, Text: ReactionPrompt})
	return nil
}

func (m *fakeMessenger) BotUsername() string { return "tip_bot" }

func (m *fakeMessenger) replyTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.replies))
	for _, r := range m.replies {
		out = append(out, r.Text)
	}
	return out
}

type memStore struct {
	users    map[string]*db.User
	groups   map[int64]*db.Group
	messages []db.Message
	titles   []string
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*db.User{}, groups: map[int64]*db.Group{}}
}

func (s *memStore) GetGroup(_ context.Context, id int64) (*db.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memStore) UpdateGroupTitle(_ context.Context, id int64, title string) error {
	s.titles = append(s.titles, title)
	s.groups[id].Title = title
	return nil
}

func (s *memStore) GetUser(_ context.Context, username string) (*db.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (s *memStore) CreateUser(_ context.Context, username, key string) (bool, error) {
	if _, ok := s.users[username]; ok {
		return false, nil
	}
	s.users[username] = &db.User{Username: username, EncryptionKey: key}
	return true, nil
}

func (s *memStore) CreateMessage(_ context.Context, groupID int64, messageID, author string) error {
	s.messages = append(s.messages, db.Message{GroupID: groupID, MessageID: messageID, Author: author})
	return nil
}

func (s *memStore) WithTx(context.Context, func(q *db.Queries) error) error {
	return errors.New("transactions are not supported by memStore")
}

var testKeystore = wallet.NewKeystore(true)

// addUser registers username with a fresh light-scrypt key.
func addUser(t *testing.T, s *memStore, username string) common.Address {
	t.Helper()
	key, err := testKeystore.Create(username)
	require.NoError(t, err)
	s.users[username] = &db.User{Username: username, EncryptionKey: key}
	w, err := wallet.Open(key, username)
	require.NoError(t, err)
	return w.Address
}

type call struct {
	Method string
	Args   []any
}

type fakeCommunity struct {
	chain.Community

	mu      sync.Mutex
	calls   []call
	err     error
	failed  bool
	value   *big.Int
	history []chain.RewardEntry
}

func (c *fakeCommunity) record(method string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{method, args})
}

func (c *fakeCommunity) receipt() (*chain.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &chain.Receipt{TxHash: common.HexToHash("0xabc"), Success: !c.failed}, nil
}

func (c *fakeCommunity) Tip(_ context.Context, to common.Address, value *big.Int) (*chain.Receipt, error) {
	c.record("tip", to, value)
	return c.receipt()
}

func (c *fakeCommunity) BatchTip(_ context.Context, to []common.Address, values []*big.Int, total *big.Int) (*chain.Receipt, error) {
	c.record("batchTip", to, values, total)
	return c.receipt()
}

func (c *fakeCommunity) SetRewardAmount(_ context.Context, value *big.Int) (*chain.Receipt, error) {
	c.record("setRewardAmount", value)
	return c.receipt()
}

func (c *fakeCommunity) Withdraw(context.Context) (*chain.Receipt, error) {
	c.record("withdraw")
	return c.receipt()
}

func (c *fakeCommunity) Fund(_ context.Context, value *big.Int) (*chain.Receipt, error) {
	c.record("fund", value)
	return c.receipt()
}

func (c *fakeCommunity) UserBalance(_ context.Context, user common.Address) (*big.Int, error) {
	c.record("getUserBalance", user)
	return c.value, c.err
}

func (c *fakeCommunity) RewardValue(context.Context) (*big.Int, error) {
	c.record("getRewardValue")
	return c.value, c.err
}

func (c *fakeCommunity) ContractBalance(context.Context) (*big.Int, error) {
	c.record("getContractBalance")
	return c.value, c.err
}

func (c *fakeCommunity) UserRewards(_ context.Context, user common.Address) ([]chain.RewardEntry, error) {
	c.record("getUserRewards", user)
	return c.history, c.err
}

type fakeFactory struct {
	addr    common.Address
	err     error
	failed  bool
	created []string
}

func (f *fakeFactory) CreateCommunity(_ context.Context, name string, _ *big.Int) (*chain.Receipt, error) {
	f.created = append(f.created, name)
	if f.err != nil {
		return nil, f.err
	}
	return &chain.Receipt{TxHash: common.HexToHash("0xfac"), Success: !f.failed}, nil
}

func (f *fakeFactory) ContractOf(context.Context, string) (common.Address, error) {
	return f.addr, f.err
}

type fakeChain struct {
	community *fakeCommunity
	factory   *fakeFactory
	names     []string
	signers   []common.Address
}

func (c *fakeChain) Factory(w *wallet.Wallet) (chain.Factory, error) {
	c.signers = append(c.signers, w.Address)
	return c.factory, nil
}

func (c *fakeChain) Community(_ context.Context, w *wallet.Wallet, name string) (chain.Community, error) {
	c.names = append(c.names, name)
	c.signers = append(c.signers, w.Address)
	if c.community == nil {
		return nil, chain.ErrCommunityNotFound
	}
	return c.community, nil
}

type fakeRewards struct {
	result    rewards.Result
	reactErr  error
	claim     rewards.ClaimResult
	claimErr  error
	reactions []rewards.Reaction
	claims    []string
}

func (r *fakeRewards) React(_ context.Context, re rewards.Reaction) (rewards.Result, error) {
	r.reactions = append(r.reactions, re)
	return r.result, r.reactErr
}

func (r *fakeRewards) Claim(_ context.Context, _ int64, username string) (rewards.ClaimResult, error) {
	r.claims = append(r.claims, username)
	return r.claim, r.claimErr
}

const (
	chatID  int64 = -1001
	adminID int64 = 7
	aliceID int64 = 11
)

var groupChat = Chat{ID: chatID, Type: "supergroup", Title: "Devs"}

type harness struct {
	store   *memStore
	msg     *fakeMessenger
	chain   *fakeChain
	rewards *fakeRewards
	d       *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   newMemStore(),
		msg:     &fakeMessenger{admins: []int64{adminID}},
		chain:   &fakeChain{community: &fakeCommunity{value: big.NewInt(0)}, factory: &fakeFactory{}},
		rewards: &fakeRewards{},
	}
	h.store.groups[chatID] = &db.Group{ID: chatID, Name: "Devs", Title: "Devs", Owner: "admin", CreatedAt: time.Now()}
	h.d = New(Options{
		Store:     h.store,
		Chain:     h.chain,
		Rewards:   h.rewards,
		Keys:      testKeystore,
		Messenger: h.msg,
		Logger:    logging.Discard(),
	})
	return h
}

func (h *harness) run(name, args string, from User) {
	h.d.Dispatch(context.Background(), Command{
		Name: name, Args: args, From: from, Chat: groupChat, MessageID: 99,
	})
}

var (
	alice = User{ID: aliceID, Username: "alice"}
	admin = User{ID: adminID, Username: "admin"}
)
