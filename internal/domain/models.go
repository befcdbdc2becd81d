package domain

import (
	"strings"
	"time"
)

// PlayerRole distinguishes the game creator from the player who joined it.
type PlayerRole string

const (
	RoleFirst  PlayerRole = "FirstPlayer"
	RoleSecond PlayerRole = "SecondPlayer"
)

// Player is one user's seat in one game.
type Player struct {
	ID         string
	GameID     string
	UserID     string
	Role       PlayerRole
	Score      int // correct answers plus bonus
	Bonus      int
	FinishedAt *time.Time
	CreatedAt  time.Time
}

func (p Player) HasFinished() bool { return p.FinishedAt != nil }

// BaseScore is the score earned from correct answers only.
func (p Player) BaseScore() int { return p.Score - p.Bonus }

// RecordAnswer applies one submitted answer to the player's progress.
func (p *Player) RecordAnswer(correct, last bool, now time.Time) {
	if correct {
		p.Score++
	}
	if last && p.FinishedAt == nil {
		p.FinishedAt = &now
	}
}

// AwardBonus grants the single finishing bonus. Repeated calls are no-ops.
func (p *Player) AwardBonus() {
	if p.Bonus > 0 {
		return
	}
	p.Bonus = 1
	p.Score++
}

// ResolveBonus awards the bonus to the strictly earlier finisher when their score is positive.
// It returns the rewarded player's index, or -1 when nobody qualifies.
func ResolveBonus(players []Player) int {
	if len(players) != 2 {
		return -1
	}
	a, b := players[0], players[1]
	if a.FinishedAt == nil || b.FinishedAt == nil {
		return -1
	}
	idx := -1
	switch {
	case a.FinishedAt.Before(*b.FinishedAt):
		idx = 0
	case b.FinishedAt.Before(*a.FinishedAt):
		idx = 1
	}
	if idx < 0 || players[idx].Score <= 0 {
		return -1
	}
	players[idx].AwardBonus()
	return idx
}

// Question is an entry of the question bank.
type Question struct {
	ID             string   `json:"id" yaml:"id"`
	Body           string   `json:"body" yaml:"body"`
	CorrectAnswers []string `json:"correctAnswers" yaml:"correctAnswers"`
	Published      bool     `json:"published" yaml:"published"`
}

// IsAnswerCorrect compares answers case-insensitively, ignoring surrounding whitespace.
func (q Question) IsAnswerCorrect(answer string) bool {
	given := normalizeAnswer(answer)
	for _, correct := range q.CorrectAnswers {
		if normalizeAnswer(correct) == given {
			return true
		}
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GameQuestion binds a bank question to a game at a fixed position.
type GameQuestion struct {
	ID         string
	GameID     string
	QuestionID string
	Order      int
	Question   Question
}

func (gq GameQuestion) IsLast() bool { return gq.Order == QuestionsPerGame-1 }

// Answer is a player's single, immutable response to a GameQuestion.
type Answer struct {
	ID             string
	GameQuestionID string
	PlayerID       string
	Body           string
	Correct        bool
	AddedAt        time.Time
}

// GameEvent is published after a committed change to a game.
type GameEvent struct {
	GameID string     `json:"gameId"`
	Status GameStatus `json:"status"`
}
