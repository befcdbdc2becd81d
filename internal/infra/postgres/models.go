package postgres

import (
	"time"

	"pair-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID             string    `bun:"id,pk"`
	Body           string    `bun:"body,notnull"`
	CorrectAnswers []string  `bun:"correct_answers,array"`
	Published      bool      `bun:"published,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *questionRow) toDomain() domain.Question {
	return domain.Question{ID: r.ID, Body: r.Body, CorrectAnswers: r.CorrectAnswers, Published: r.Published}
}

type gameRow struct {
	bun.BaseModel `bun:"table:pair_games,alias:g"`

	ID         string     `bun:"id,pk,type:uuid"`
	Status     string     `bun:"status,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	StartedAt  *time.Time `bun:"started_at"`
	FinishedAt *time.Time `bun:"finished_at"`
}

func newGameRow(g domain.Game) *gameRow {
	return &gameRow{
		ID:         g.ID,
		Status:     string(g.Status),
		CreatedAt:  g.CreatedAt,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}

func (r *gameRow) toDomain() domain.Game {
	return domain.Game{
		ID:         r.ID,
		Status:     domain.GameStatus(r.Status),
		CreatedAt:  r.CreatedAt.UTC(),
		StartedAt:  utcPtr(r.StartedAt),
		FinishedAt: utcPtr(r.FinishedAt),
	}
}

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID         string     `bun:"id,pk,type:uuid"`
	GameID     string     `bun:"game_id,notnull,type:uuid"`
	UserID     string     `bun:"user_id,notnull"`
	Role       string     `bun:"role,notnull"`
	Score      int        `bun:"score,notnull"`
	Bonus      int        `bun:"bonus,notnull"`
	FinishedAt *time.Time `bun:"finished_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
}

func newPlayerRow(p domain.Player) *playerRow {
	return &playerRow{
		ID:         p.ID,
		GameID:     p.GameID,
		UserID:     p.UserID,
		Role:       string(p.Role),
		Score:      p.Score,
		Bonus:      p.Bonus,
		FinishedAt: p.FinishedAt,
		CreatedAt:  p.CreatedAt,
	}
}

func (r *playerRow) toDomain() domain.Player {
	return domain.Player{
		ID:         r.ID,
		GameID:     r.GameID,
		UserID:     r.UserID,
		Role:       domain.PlayerRole(r.Role),
		Score:      r.Score,
		Bonus:      r.Bonus,
		FinishedAt: utcPtr(r.FinishedAt),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type gameQuestionRow struct {
	bun.BaseModel `bun:"table:game_questions,alias:gq"`

	ID         string       `bun:"id,pk,type:uuid"`
	GameID     string       `bun:"game_id,notnull,type:uuid"`
	QuestionID string       `bun:"question_id,notnull"`
	Order      int          `bun:"order_index,notnull"`
	Question   *questionRow `bun:"rel:belongs-to,join:question_id=id"`
}

func (r *gameQuestionRow) toDomain() domain.GameQuestion {
	gq := domain.GameQuestion{ID: r.ID, GameID: r.GameID, QuestionID: r.QuestionID, Order: r.Order}
	if r.Question != nil {
		gq.Question = r.Question.toDomain()
	}
	return gq
}

type answerRow struct {
	bun.BaseModel `bun:"table:game_answers,alias:ga"`

	ID             string    `bun:"id,pk,type:uuid"`
	GameQuestionID string    `bun:"game_question_id,notnull,type:uuid"`
	PlayerID       string    `bun:"player_id,notnull,type:uuid"`
	Answer         string    `bun:"answer,notnull"`
	IsCorrect      bool      `bun:"is_correct,notnull"`
	AddedAt        time.Time `bun:"added_at,notnull"`
}

func (r *answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:             r.ID,
		GameQuestionID: r.GameQuestionID,
		PlayerID:       r.PlayerID,
		Body:           r.Answer,
		Correct:        r.IsCorrect,
		AddedAt:        r.AddedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
