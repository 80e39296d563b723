package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (q *Queries) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := q.q.QueryRowContext(ctx,
		"SELECT username, encryption_key, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.Username, &u.EncryptionKey, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user. It reports false when the username already exists.
func (q *Queries) CreateUser(ctx context.Context, username, encryptionKey string) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		"INSERT INTO users (username, encryption_key) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING",
		username, encryptionKey,
	)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return n == 1, nil
}
