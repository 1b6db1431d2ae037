package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB は pgxpool.Pool とテスト用モックの双方が満たすクエリ実行インターフェース。
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

var _ DB = (*pgxpool.Pool)(nil)

const createTableSQL = `CREATE TABLE IF NOT EXISTS responses (
	id uuid PRIMARY KEY,
	respondent_id text NOT NULL,
	location text NOT NULL,
	category text NOT NULL,
	timeline text NOT NULL,
	answers json NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS responses_created_at_idx ON responses (created_at DESC)`

// Connect はプールを作成し、疎通確認まで済ませて返す。
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the responses table when it does not exist yet.
// answers は jsonb ではなく json 型にしてキー順をそのまま保存する。
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create responses table: %w", err)
	}
	if _, err := db.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create responses index: %w", err)
	}
	return nil
}
