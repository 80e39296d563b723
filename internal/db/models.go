package db

import "time"

type User struct {
	Username      string    `json:"username"`
	EncryptionKey string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Group is a registered chat. Name is the community name registered on-chain
// and never changes; Title tracks the chat title and may be stale.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	MessageID string    `json:"message_id"`
	GroupID   int64     `json:"group_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ReactionReject  = 0
	ReactionApprove = 1
)

type Reaction struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	MessageID string    `json:"message_id"`
	GroupID   int64     `json:"group_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Reward is a pending reward credit: the number of reward transfers owed to
// a user that failed on-chain and can be claimed later.
type Reward struct {
	Username  string    `json:"username"`
	Value     int       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
