package domain

import (
	"fmt"
	"time"
)

// QuestionsPerGame is the number of questions assigned to every game.
const QuestionsPerGame = 5

// GameStatus is the lifecycle state of a pair game. It only moves forward.
type GameStatus string

const (
	StatusWaiting  GameStatus = "PendingSecondPlayer"
	StatusActive   GameStatus = "Active"
	StatusFinished GameStatus = "Finished"
)

// Game is the stored form of a pair game.
type Game struct {
	ID         string
	Status     GameStatus
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// NewGame returns a game waiting for its second player.
func NewGame(id string, now time.Time) WaitingGame {
	return WaitingGame{game: Game{ID: id, Status: StatusWaiting, CreatedAt: now}}
}

// WaitingGame is a game known to be in StatusWaiting.
type WaitingGame struct{ game Game }

// ActiveGame is a game known to be in StatusActive.
type ActiveGame struct{ game Game }

// Waiting narrows g to a WaitingGame.
func (g Game) Waiting() (WaitingGame, error) {
	if g.Status != StatusWaiting {
		return WaitingGame{}, fmt.Errorf("game %s is %s, want %s: %w", g.ID, g.Status, StatusWaiting, ErrIllegalTransition)
	}
	return WaitingGame{game: g}, nil
}

// Active narrows g to an ActiveGame.
func (g Game) Active() (ActiveGame, error) {
	if g.Status != StatusActive {
		return ActiveGame{}, fmt.Errorf("game %s is %s, want %s: %w", g.ID, g.Status, StatusActive, ErrIllegalTransition)
	}
	return ActiveGame{game: g}, nil
}

func (g Game) IsWaiting() bool  { return g.Status == StatusWaiting }
func (g Game) IsActive() bool   { return g.Status == StatusActive }
func (g Game) IsFinished() bool { return g.Status == StatusFinished }

func (w WaitingGame) Game() Game { return w.game }
func (w WaitingGame) ID() string { return w.game.ID }

// Activate starts the game once the second player has joined.
func (w WaitingGame) Activate(now time.Time) ActiveGame {
	g := w.game
	g.Status = StatusActive
	g.StartedAt = &now
	return ActiveGame{game: g}
}

func (a ActiveGame) Game() Game { return a.game }
func (a ActiveGame) ID() string { return a.game.ID }

// Finish closes the game. The returned record is terminal.
func (a ActiveGame) Finish(now time.Time) Game {
	g := a.game
	g.Status = StatusFinished
	g.FinishedAt = &now
	return g
}
