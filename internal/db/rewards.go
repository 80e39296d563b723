package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetReward returns the pending reward units for a user, 0 when none are recorded.
func (q *Queries) GetReward(ctx context.Context, username string) (int, error) {
	var value int
	err := q.q.QueryRowContext(ctx,
		"SELECT value FROM rewards WHERE username = $1", username,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get reward: %w", err)
	}
	return value, nil
}

// IncrementReward adds one pending unit and returns the new total.
func (q *Queries) IncrementReward(ctx context.Context, username string) (int, error) {
	var value int
	err := q.q.QueryRowContext(ctx,
		`INSERT INTO rewards (username, value) VALUES ($1, 1)
		 ON CONFLICT (username) DO UPDATE
		 SET value = rewards.value + 1, updated_at = CURRENT_TIMESTAMP
		 RETURNING value`,
		username,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment reward: %w", err)
	}
	return value, nil
}

func (q *Queries) ResetReward(ctx context.Context, username string) error {
	_, err := q.q.ExecContext(ctx,
		"UPDATE rewards SET value = 0, updated_at = CURRENT_TIMESTAMP WHERE username = $1",
		username,
	)
	if err != nil {
		return fmt.Errorf("reset reward: %w", err)
	}
	return nil
}

// ListPendingRewards returns every user with at least one unclaimed unit.
func (q *Queries) ListPendingRewards(ctx context.Context) ([]Reward, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT username, value, updated_at FROM rewards WHERE value > 0 ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var out []Reward
	for rows.Next() {
		var r Reward
		if err := rows.Scan(&r.Username, &r.Value, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
