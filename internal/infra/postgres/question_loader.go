package postgres

import (
	"context"
	"fmt"

	"pair-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads and writes the question bank through a pgx pool.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadPublished(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, body, correct_answers FROM questions WHERE published ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q := domain.Question{Published: true}
		if err := rows.Scan(&q.ID, &q.Body, &q.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}

// ImportQuestions upserts the given questions in one transaction.
func (l *QuestionLoader) ImportQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range questions {
			batch.Queue(`INSERT INTO questions (id, body, correct_answers, published)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, correct_answers = EXCLUDED.correct_answers, published = EXCLUDED.published`,
				q.ID, q.Body, q.CorrectAnswers, q.Published)
		}
		res := tx.SendBatch(ctx, batch)
		for _, q := range questions {
			if _, err := res.Exec(); err != nil {
				res.Close()
				return fmt.Errorf("upsert question %s: %w", q.ID, err)
			}
		}
		return res.Close()
	})
}
