package app

import (
	"context"

	"pair-quiz-service/internal/domain"
)

// UnitOfWork runs a function inside one atomic transaction against the game stores.
// Every effect of fn becomes visible together, or none does when fn returns an error.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the stores bound to one transaction.
type Tx interface {
	Games() GameStore
	Players() PlayerStore
	Turns() TurnStore
}

// GameStore owns Game rows.
type GameStore interface {
	// LockUser serializes units of work for one user until the transaction ends.
	LockUser(ctx context.Context, userID string) error
	Create(ctx context.Context, game domain.Game) error
	Get(ctx context.Context, id string) (domain.Game, bool, error)
	// GetForUpdate loads a game under an exclusive row lock.
	GetForUpdate(ctx context.Context, id string) (domain.Game, bool, error)
	// FindCurrentByUser returns the user's waiting or active game.
	FindCurrentByUser(ctx context.Context, userID string) (domain.Game, bool, error)
	FindActiveByUser(ctx context.Context, userID string) (domain.Game, bool, error)
	// ClaimWaiting locks the oldest waiting game the user is not part of,
	// skipping games already claimed by concurrent transactions.
	ClaimWaiting(ctx context.Context, userID string) (domain.Game, bool, error)
	Update(ctx context.Context, game domain.Game) error
}

// PlayerStore owns Player rows. Create reports domain.ErrConstraintViolation on a (game, user) or (game, role) conflict.
type PlayerStore interface {
	Create(ctx context.Context, player domain.Player) error
	Find(ctx context.Context, gameID, userID string) (domain.Player, bool, error)
	// FindForUpdate loads a player under an exclusive row lock held until the transaction ends.
	FindForUpdate(ctx context.Context, gameID, userID string) (domain.Player, bool, error)
	// ListByGame returns the game's players, first player first.
	ListByGame(ctx context.Context, gameID string) ([]domain.Player, error)
	Update(ctx context.Context, player domain.Player) error
}

// TurnStore owns assigned questions and answers.
type TurnStore interface {
	AssignQuestions(ctx context.Context, questions []domain.GameQuestion) error
	// ListQuestions returns the game's questions ordered by position, with bank questions attached.
	ListQuestions(ctx context.Context, gameID string) ([]domain.GameQuestion, error)
	QuestionAt(ctx context.Context, gameID string, order int) (domain.GameQuestion, bool, error)
	CountAnswers(ctx context.Context, playerID string) (int, error)
	FindAnswer(ctx context.Context, gameQuestionID, playerID string) (domain.Answer, bool, error)
	// CreateAnswer reports domain.ErrConstraintViolation when the (question, player) pair already has an answer.
	CreateAnswer(ctx context.Context, answer domain.Answer) error
	ListAnswers(ctx context.Context, playerIDs []string) ([]domain.Answer, error)
}

// QuestionSource draws a uniform random sample of published questions. It may return fewer than n.
type QuestionSource interface {
	DrawRandom(ctx context.Context, n int) ([]domain.Question, error)
}

// Notifier fans out committed game changes to interested connections, possibly on other instances.
type Notifier interface {
	Publish(ctx context.Context, event domain.GameEvent) error
	// Subscribe returns a channel of events for one game.
	// The caller must invoke the returned cancel function to avoid leaks.
	Subscribe(ctx context.Context, gameID string) (<-chan domain.GameEvent, func(), error)
}
