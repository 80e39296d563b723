package db

import (
	"context"
	"fmt"
)

func (q *Queries) ReactionExists(ctx context.Context, groupID int64, messageID, username string) (bool, error) {
	var exists bool
	err := q.q.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reactions WHERE username = $1 AND message_id = $2 AND group_id = $3
		)`,
		username, messageID, groupID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reaction exists: %w", err)
	}
	return exists, nil
}

// CreateReaction records a reaction. It reports false when the
// (username, message, group) triple already has one.
func (q *Queries) CreateReaction(ctx context.Context, groupID int64, messageID, username string, value int) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO reactions (username, message_id, group_id, value) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username, message_id, group_id) DO NOTHING`,
		username, messageID, groupID, value,
	)
	if err != nil {
		return false, fmt.Errorf("create reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create reaction: %w", err)
	}
	return n == 1, nil
}

// CountReactions returns the approve and reject tallies for a message.
func (q *Queries) CountReactions(ctx context.Context, groupID int64, messageID string) (approvals, rejections int64, err error) {
	err = q.q.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE value = 1),
			COUNT(*) FILTER (WHERE value = 0)
		 FROM reactions WHERE group_id = $1 AND message_id = $2`,
		groupID, messageID,
	).Scan(&approvals, &rejections)
	if err != nil {
		return 0, 0, fmt.Errorf("count reactions: %w", err)
	}
	return approvals, rejections, nil
}

func (q *Queries) DeleteReaction(ctx context.Context, groupID int64, messageID, username string) error {
	_, err := q.q.ExecContext(ctx,
		"DELETE FROM reactions WHERE username = $1 AND message_id = $2 AND group_id = $3",
		username, messageID, groupID,
	)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

func (q *Queries) ListReactions(ctx context.Context, groupID int64, messageID string) ([]Reaction, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, username, message_id, group_id, value, created_at
		 FROM reactions WHERE group_id = $1 AND message_id = $2 ORDER BY id`,
		groupID, messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var out []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.ID, &r.Username, &r.MessageID, &r.GroupID, &r.Value, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
