package postgres

import (
	"context"
	"fmt"

	"pair-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

type turnStore struct {
	db bun.IDB
}

func (s turnStore) AssignQuestions(ctx context.Context, questions []domain.GameQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]gameQuestionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, gameQuestionRow{ID: q.ID, GameID: q.GameID, QuestionID: q.QuestionID, Order: q.Order})
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return translate("insert game questions", err)
}

func (s turnStore) ListQuestions(ctx context.Context, gameID string) ([]domain.GameQuestion, error) {
	var rows []gameQuestionRow
	err := s.db.NewSelect().
		Model(&rows).
		Relation("Question").
		Where("gq.game_id = ?", gameID).
		OrderExpr("gq.order_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list game questions: %w", err)
	}
	out := make([]domain.GameQuestion, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s turnStore) QuestionAt(ctx context.Context, gameID string, order int) (domain.GameQuestion, bool, error) {
	var row gameQuestionRow
	err := s.db.NewSelect().
		Model(&row).
		Relation("Question").
		Where("gq.game_id = ?", gameID).
		Where("gq.order_index = ?", order).
		Scan(ctx)
	ok, err := found("select game question", err)
	if !ok {
		return domain.GameQuestion{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s turnStore) CountAnswers(ctx context.Context, playerID string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*answerRow)(nil)).
		Where("ga.player_id = ?", playerID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

func (s turnStore) FindAnswer(ctx context.Context, gameQuestionID, playerID string) (domain.Answer, bool, error) {
	var row answerRow
	err := s.db.NewSelect().
		Model(&row).
		Where("ga.game_question_id = ?", gameQuestionID).
		Where("ga.player_id = ?", playerID).
		Scan(ctx)
	ok, err := found("select answer", err)
	if !ok {
		return domain.Answer{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s turnStore) CreateAnswer(ctx context.Context, answer domain.Answer) error {
	row := &answerRow{
		ID:             answer.ID,
		GameQuestionID: answer.GameQuestionID,
		PlayerID:       answer.PlayerID,
		Answer:         answer.Body,
		IsCorrect:      answer.Correct,
		AddedAt:        answer.AddedAt,
	}
	res, err := s.db.NewInsert().Model(row).On("CONFLICT DO NOTHING").Exec(ctx)
	return inserted("insert answer", res, err)
}

func (s turnStore) ListAnswers(ctx context.Context, playerIDs []string) ([]domain.Answer, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	var rows []answerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("ga.player_id IN (?)", bun.In(playerIDs)).
		OrderExpr("ga.added_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.Answer, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
