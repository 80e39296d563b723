package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const groupColumns = "id, name, title, owner, created_at"

func scanGroup(row interface{ Scan(...any) error }) (*Group, error) {
	var g Group
	if err := row.Scan(&g.ID, &g.Name, &g.Title, &g.Owner, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (q *Queries) GetGroup(ctx context.Context, id int64) (*Group, error) {
	g, err := scanGroup(q.q.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (q *Queries) CreateGroup(ctx context.Context, id int64, name, owner string) error {
	_, err := q.q.ExecContext(ctx,
		"INSERT INTO groups (id, name, title, owner) VALUES ($1, $2, $2, $3)",
		id, name, owner,
	)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// UpdateGroupTitle records the current chat title. The on-chain name is left alone.
func (q *Queries) UpdateGroupTitle(ctx context.Context, id int64, title string) error {
	_, err := q.q.ExecContext(ctx,
		"UPDATE groups SET title = $2 WHERE id = $1 AND title <> $2",
		id, title,
	)
	if err != nil {
		return fmt.Errorf("update group title: %w", err)
	}
	return nil
}

func (q *Queries) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := q.q.QueryContext(ctx, "SELECT "+groupColumns+" FROM groups ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}
