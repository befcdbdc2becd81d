package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pair-quiz-service/internal/domain"
)

// Connect pairs the user with the oldest waiting game, or opens a new one.
// The returned snapshot is re-read after commit and reflects the game's current state.
func (s *PairGameService) Connect(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	var (
		gameID string
		status domain.GameStatus
	)
	err := s.uow.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Games().LockUser(ctx, userID); err != nil {
			return err
		}
		if _, ok, err := tx.Games().FindCurrentByUser(ctx, userID); err != nil {
			return err
		} else if ok {
			return domain.ErrAlreadyInGame
		}

		claimed, ok, err := tx.Games().ClaimWaiting(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			game, err := s.openGame(ctx, tx, userID)
			if err != nil {
				return err
			}
			gameID, status = game.ID, game.Status
			return nil
		}

		waiting, err := claimed.Waiting()
		if err != nil {
			return domain.ErrInternal.Wrap(err)
		}
		game, err := s.joinGame(ctx, tx, waiting, userID)
		if err != nil {
			return err
		}
		gameID, status = game.ID, game.Status
		return nil
	})
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	log.Printf("user %s connected to game %s (%s)", userID, gameID, status)
	s.publish(ctx, gameID, status)

	var snap domain.GameSnapshot
	err = s.uow.View(ctx, func(ctx context.Context, tx Tx) error {
		game, ok, err := tx.Games().Get(ctx, gameID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInternal.Wrap(fmt.Errorf("game %s vanished after connect", gameID))
		}
		snap, err = loadSnapshot(ctx, tx, game)
		return err
	})
	return snap, err
}

func (s *PairGameService) openGame(ctx context.Context, tx Tx, userID string) (domain.Game, error) {
	now := s.now()
	game := domain.NewGame(s.newID(), now).Game()
	if err := tx.Games().Create(ctx, game); err != nil {
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	first := domain.Player{
		ID:        s.newID(),
		GameID:    game.ID,
		UserID:    userID,
		Role:      domain.RoleFirst,
		CreatedAt: now,
	}
	if err := tx.Players().Create(ctx, first); err != nil {
		return domain.Game{}, fmt.Errorf("create first player: %w", err)
	}
	return game, nil
}

func (s *PairGameService) joinGame(ctx context.Context, tx Tx, waiting domain.WaitingGame, userID string) (domain.Game, error) {
	drawn, err := s.questions.DrawRandom(ctx, domain.QuestionsPerGame)
	if err != nil {
		return domain.Game{}, fmt.Errorf("draw questions: %w", err)
	}
	if len(drawn) < domain.QuestionsPerGame {
		return domain.Game{}, domain.ErrInsufficientQuestions
	}
	drawn = drawn[:domain.QuestionsPerGame]

	now := s.now()
	second := domain.Player{
		ID:        s.newID(),
		GameID:    waiting.ID(),
		UserID:    userID,
		Role:      domain.RoleSecond,
		CreatedAt: now,
	}
	if err := tx.Players().Create(ctx, second); err != nil {
		if !errors.Is(err, domain.ErrConstraintViolation) {
			return domain.Game{}, fmt.Errorf("create second player: %w", err)
		}
		// A concurrent attempt may already have seated this user; anything else is unexplained.
		if _, ok, ferr := tx.Players().Find(ctx, waiting.ID(), userID); ferr != nil {
			return domain.Game{}, ferr
		} else if !ok {
			return domain.Game{}, domain.ErrInternal.Wrap(err)
		}
	}

	assigned := make([]domain.GameQuestion, 0, len(drawn))
	for i, q := range drawn {
		assigned = append(assigned, domain.GameQuestion{
			ID:         s.newID(),
			GameID:     waiting.ID(),
			QuestionID: q.ID,
			Order:      i,
			Question:   q,
		})
	}
	if err := tx.Turns().AssignQuestions(ctx, assigned); err != nil {
		return domain.Game{}, fmt.Errorf("assign questions: %w", err)
	}

	game := waiting.Activate(now).Game()
	if err := tx.Games().Update(ctx, game); err != nil {
		return domain.Game{}, fmt.Errorf("activate game: %w", err)
	}
	return game, nil
}
