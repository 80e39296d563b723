// Package db persists users, groups, messages, reactions and pending reward
// credits in PostgreSQL.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// DBTX is the subset of database/sql used by the queries.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs every statement against a DBTX, so the same methods work on
// the pool and inside a transaction.
type Queries struct {
	q DBTX
}

func NewQueries(q DBTX) *Queries {
	return &Queries{q: q}
}

type DB struct {
	*Queries
	conn *sql.DB
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return Wrap(conn), nil
}

// Wrap builds a DB around an already opened connection.
func Wrap(conn *sql.DB) *DB {
	return &DB{Queries: NewQueries(conn), conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, conn *sql.DB, dir string) error {
	return goose.UpContext(ctx, conn, dir)
}

// RunMigrations applies the embedded goose migrations.
func (db *DB) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseUp(ctx, db.conn, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WithTx begins a transaction, runs fn with queries bound to it, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
func (db *DB) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	return withTx(ctx, db.conn, fn)
}

func withTx(ctx context.Context, conn *sql.DB, fn func(q *Queries) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(NewQueries(tx))
	return err
}
