package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pair-quiz-service/internal/domain"
)

// SubmitAnswer records the user's answer to their next question and finalizes the game
// once both players have answered everything.
func (s *PairGameService) SubmitAnswer(ctx context.Context, userID, text string) (domain.AnswerRecord, error) {
	var (
		record   domain.AnswerRecord
		gameID   string
		finished bool
	)
	err := s.uow.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		game, ok, err := tx.Games().FindActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotParticipant
		}
		gameID = game.ID

		player, ok, err := tx.Players().FindForUpdate(ctx, game.ID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPlayerNotFound
		}

		answered, err := tx.Turns().CountAnswers(ctx, player.ID)
		if err != nil {
			return err
		}
		if answered >= domain.QuestionsPerGame {
			return domain.ErrNotParticipant
		}

		next, ok, err := tx.Turns().QuestionAt(ctx, game.ID, answered)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrQuestionNotFound
		}

		if _, ok, err := tx.Turns().FindAnswer(ctx, next.ID, player.ID); err != nil {
			return err
		} else if ok {
			return domain.ErrDuplicateAnswer
		}

		now := s.now()
		answer := domain.Answer{
			ID:             s.newID(),
			GameQuestionID: next.ID,
			PlayerID:       player.ID,
			Body:           text,
			Correct:        next.Question.IsAnswerCorrect(text),
			AddedAt:        now,
		}
		if err := tx.Turns().CreateAnswer(ctx, answer); err != nil {
			if errors.Is(err, domain.ErrConstraintViolation) {
				return domain.ErrDuplicateAnswer.Wrap(err)
			}
			return fmt.Errorf("create answer: %w", err)
		}

		player.RecordAnswer(answer.Correct, next.IsLast(), now)
		if err := tx.Players().Update(ctx, player); err != nil {
			return fmt.Errorf("update player: %w", err)
		}
		record = domain.NewAnswerRecord(answer, next)

		finished, err = s.finishIfComplete(ctx, tx, game.ID)
		return err
	})
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	status := domain.StatusActive
	if finished {
		status = domain.StatusFinished
		log.Printf("game %s finished", gameID)
	}
	s.publish(ctx, gameID, status)
	return record, nil
}

// finishIfComplete finalizes the game when every player has a finish time.
// The game row lock orders the two players' last submissions, so the later one sees both finish times.
func (s *PairGameService) finishIfComplete(ctx context.Context, tx Tx, gameID string) (bool, error) {
	locked, ok, err := tx.Games().GetForUpdate(ctx, gameID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrInternal.Wrap(fmt.Errorf("game %s vanished during answer", gameID))
	}
	active, err := locked.Active()
	if err != nil {
		// Already finalized by a concurrent submission.
		return false, nil
	}

	players, err := tx.Players().ListByGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	if len(players) != 2 {
		return false, nil
	}
	for _, p := range players {
		if !p.HasFinished() {
			return false, nil
		}
	}

	domain.ResolveBonus(players)
	for _, p := range players {
		if err := tx.Players().Update(ctx, p); err != nil {
			return false, fmt.Errorf("save player %s: %w", p.ID, err)
		}
	}

	if err := tx.Games().Update(ctx, active.Finish(s.now())); err != nil {
		return false, fmt.Errorf("finish game: %w", err)
	}
	return true, nil
}
