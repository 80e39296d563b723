package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (q *Queries) CreateMessage(ctx context.Context, groupID int64, messageID, author string) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO messages (message_id, group_id, author) VALUES ($1, $2, $3)
		 ON CONFLICT (group_id, message_id) DO NOTHING`,
		messageID, groupID, author,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (q *Queries) GetMessage(ctx context.Context, groupID int64, messageID string) (*Message, error) {
	var m Message
	err := q.q.QueryRowContext(ctx,
		"SELECT id, message_id, group_id, author, created_at FROM messages WHERE group_id = $1 AND message_id = $2",
		groupID, messageID,
	).Scan(&m.ID, &m.MessageID, &m.GroupID, &m.Author, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}
