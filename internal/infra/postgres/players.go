package postgres

import (
	"context"
	"fmt"

	"pair-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

type playerStore struct {
	db bun.IDB
}

// Create inserts with ON CONFLICT DO NOTHING so a conflict leaves the transaction usable
// for the caller's follow-up lookup.
func (s playerStore) Create(ctx context.Context, player domain.Player) error {
	res, err := s.db.NewInsert().
		Model(newPlayerRow(player)).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return inserted("insert player", res, err)
}

func (s playerStore) Find(ctx context.Context, gameID, userID string) (domain.Player, bool, error) {
	return s.find(ctx, gameID, userID, false)
}

func (s playerStore) FindForUpdate(ctx context.Context, gameID, userID string) (domain.Player, bool, error) {
	return s.find(ctx, gameID, userID, true)
}

func (s playerStore) find(ctx context.Context, gameID, userID string, lock bool) (domain.Player, bool, error) {
	var row playerRow
	q := s.db.NewSelect().
		Model(&row).
		Where("p.game_id = ?", gameID).
		Where("p.user_id = ?", userID)
	if lock {
		q = q.For("UPDATE")
	}
	ok, err := found("select player", q.Scan(ctx))
	if !ok {
		return domain.Player{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s playerStore) ListByGame(ctx context.Context, gameID string) ([]domain.Player, error) {
	var rows []playerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("p.game_id = ?", gameID).
		OrderExpr("p.role ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out := make([]domain.Player, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s playerStore) Update(ctx context.Context, player domain.Player) error {
	res, err := s.db.NewUpdate().
		Model(newPlayerRow(player)).
		Column("score", "bonus", "finished_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate("update player", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update player %s: %w", player.ID, domain.ErrRowMissing)
	}
	return nil
}
