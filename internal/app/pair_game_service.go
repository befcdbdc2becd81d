package app

import (
	"context"
	"errors"
	"log"
	"time"

	"pair-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// PairGameService contains the matchmaking and answering use cases.
type PairGameService struct {
	uow       UnitOfWork
	questions QuestionSource
	notifier  Notifier
	now       func() time.Time
	newID     func() string
}

// Option customizes a PairGameService.
type Option func(*PairGameService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PairGameService) { s.now = now }
}

// WithNotifier publishes game events after each committed change.
func WithNotifier(n Notifier) Option {
	return func(s *PairGameService) { s.notifier = n }
}

func NewPairGameService(uow UnitOfWork, questions QuestionSource, opts ...Option) *PairGameService {
	s := &PairGameService{
		uow:       uow,
		questions: questions,
		now:       defaultClock,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Postgres keeps microseconds; truncating here keeps in-memory and stored timestamps comparable.
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Subscribe follows committed changes of one game.
func (s *PairGameService) Subscribe(ctx context.Context, gameID string) (<-chan domain.GameEvent, func(), error) {
	if s.notifier == nil {
		return nil, nil, errors.New("game events are not configured")
	}
	return s.notifier.Subscribe(ctx, gameID)
}

// CurrentGame returns the snapshot of the user's waiting or active game.
func (s *PairGameService) CurrentGame(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	var snap domain.GameSnapshot
	err := s.uow.View(ctx, func(ctx context.Context, tx Tx) error {
		game, ok, err := tx.Games().FindCurrentByUser(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNoActiveGame
		}
		snap, err = loadSnapshot(ctx, tx, game)
		return err
	})
	return snap, err
}

// GameByID returns any game the user took part in, including finished ones.
func (s *PairGameService) GameByID(ctx context.Context, gameID, userID string) (domain.GameSnapshot, error) {
	var snap domain.GameSnapshot
	err := s.uow.View(ctx, func(ctx context.Context, tx Tx) error {
		game, ok, err := tx.Games().Get(ctx, gameID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrGameNotFound
		}
		if _, ok, err := tx.Players().Find(ctx, gameID, userID); err != nil {
			return err
		} else if !ok {
			return domain.ErrNotGameParticipant
		}
		snap, err = loadSnapshot(ctx, tx, game)
		return err
	})
	return snap, err
}

// loadSnapshot re-reads every row of the game inside tx.
func loadSnapshot(ctx context.Context, tx Tx, game domain.Game) (domain.GameSnapshot, error) {
	players, err := tx.Players().ListByGame(ctx, game.ID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	questions, err := tx.Turns().ListQuestions(ctx, game.ID)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	answers, err := tx.Turns().ListAnswers(ctx, ids)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return domain.BuildSnapshot(game, players, questions, answers), nil
}

// publish is best-effort: the change is already committed when it runs.
func (s *PairGameService) publish(ctx context.Context, gameID string, status domain.GameStatus) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, domain.GameEvent{GameID: gameID, Status: status}); err != nil {
		log.Printf("publish game %s event: %v", gameID, err)
	}
}
