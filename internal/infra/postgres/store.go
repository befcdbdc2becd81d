package postgres

import (
	"context"
	"database/sql"

	"pair-quiz-service/internal/app"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store is the Postgres implementation of app.UnitOfWork.
// Writers run at READ COMMITTED and rely on row locks; readers get a REPEATABLE READ snapshot.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, stores{db: tx})
	})
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, stores{db: tx})
	})
}

type stores struct {
	db bun.IDB
}

func (s stores) Games() app.GameStore     { return gameStore{db: s.db} }
func (s stores) Players() app.PlayerStore { return playerStore{db: s.db} }
func (s stores) Turns() app.TurnStore     { return turnStore{db: s.db} }
