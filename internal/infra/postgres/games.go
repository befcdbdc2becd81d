package postgres

import (
	"context"
	"fmt"

	"pair-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

type gameStore struct {
	db bun.IDB
}

// LockUser takes a transaction-scoped advisory lock keyed on the user id.
func (s gameStore) LockUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", userID)
	if err != nil {
		return fmt.Errorf("lock user %s: %w", userID, err)
	}
	return nil
}

func (s gameStore) Create(ctx context.Context, game domain.Game) error {
	_, err := s.db.NewInsert().Model(newGameRow(game)).Exec(ctx)
	return translate("insert game", err)
}

func (s gameStore) Get(ctx context.Context, id string) (domain.Game, bool, error) {
	return s.get(ctx, id, false)
}

func (s gameStore) GetForUpdate(ctx context.Context, id string) (domain.Game, bool, error) {
	return s.get(ctx, id, true)
}

func (s gameStore) get(ctx context.Context, id string, lock bool) (domain.Game, bool, error) {
	var row gameRow
	q := s.db.NewSelect().Model(&row).Where("g.id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	ok, err := found("select game", q.Scan(ctx))
	if !ok {
		return domain.Game{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s gameStore) FindCurrentByUser(ctx context.Context, userID string) (domain.Game, bool, error) {
	return s.findByUser(ctx, userID, domain.StatusWaiting, domain.StatusActive)
}

func (s gameStore) FindActiveByUser(ctx context.Context, userID string) (domain.Game, bool, error) {
	return s.findByUser(ctx, userID, domain.StatusActive)
}

func (s gameStore) findByUser(ctx context.Context, userID string, statuses ...domain.GameStatus) (domain.Game, bool, error) {
	var row gameRow
	err := s.db.NewSelect().
		Model(&row).
		Where("g.status IN (?)", bun.In(statuses)).
		Where("EXISTS (SELECT 1 FROM players AS p WHERE p.game_id = g.id AND p.user_id = ?)", userID).
		OrderExpr("g.created_at DESC").
		Limit(1).
		Scan(ctx)
	ok, err := found("select game by user", err)
	if !ok {
		return domain.Game{}, false, err
	}
	return row.toDomain(), true, nil
}

// ClaimWaiting locks the oldest claimable waiting game; rows locked by concurrent connects are skipped, not waited on.
func (s gameStore) ClaimWaiting(ctx context.Context, userID string) (domain.Game, bool, error) {
	var row gameRow
	err := s.db.NewSelect().
		Model(&row).
		Where("g.status = ?", domain.StatusWaiting).
		Where("NOT EXISTS (SELECT 1 FROM players AS p WHERE p.game_id = g.id AND p.user_id = ?)", userID).
		OrderExpr("g.created_at ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	ok, err := found("claim waiting game", err)
	if !ok {
		return domain.Game{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s gameStore) Update(ctx context.Context, game domain.Game) error {
	res, err := s.db.NewUpdate().
		Model(newGameRow(game)).
		Column("status", "started_at", "finished_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate("update game", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update game %s: %w", game.ID, domain.ErrRowMissing)
	}
	return nil
}
