package domain

import (
	"errors"
	"fmt"
)

// Kind classifies domain failures so callers can map them to protocol statuses.
type Kind string

const (
	KindAlreadyInGame         Kind = "AlreadyInGame"
	KindInsufficientQuestions Kind = "InsufficientQuestions"
	KindNotParticipant        Kind = "NotParticipant"
	KindPlayerNotFound        Kind = "PlayerNotFound"
	KindQuestionNotFound      Kind = "QuestionNotFound"
	KindDuplicateAnswer       Kind = "DuplicateAnswer"
	KindGameNotFound          Kind = "GameNotFound"
	KindInternal              Kind = "InternalError"
)

// Error is a typed, field-tagged failure returned by the game coordinators.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrDuplicateAnswer) works on wrapped copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Field: e.Field, Message: e.Message, Err: cause}
}

// KindOf reports the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	// ErrAlreadyInGame is returned when the user already has a waiting or active game.
	ErrAlreadyInGame = &Error{Kind: KindAlreadyInGame, Field: "Game", Message: "current user is already participating in active pair"}
	// ErrInsufficientQuestions is returned when the published pool cannot fill a game.
	ErrInsufficientQuestions = &Error{Kind: KindInsufficientQuestions, Field: "Questions", Message: "not enough published questions available"}
	// ErrNotParticipant covers both "no active game" and "all answers already given".
	ErrNotParticipant = &Error{Kind: KindNotParticipant, Field: "Game", Message: "current user is not inside active pair or has already answered all questions"}
	// ErrNotGameParticipant is returned when a user asks for a game they did not play in.
	ErrNotGameParticipant = &Error{Kind: KindNotParticipant, Field: "Game", Message: "current user is not participant of this pair"}
	ErrPlayerNotFound     = &Error{Kind: KindPlayerNotFound, Field: "Player", Message: "player not found"}
	ErrQuestionNotFound   = &Error{Kind: KindQuestionNotFound, Field: "GameQuestion", Message: "next question not found"}
	ErrDuplicateAnswer    = &Error{Kind: KindDuplicateAnswer, Field: "GameAnswer", Message: "answer already submitted for this question"}
	// ErrGameNotFound is returned by the read paths when no matching game exists.
	ErrGameNotFound = &Error{Kind: KindGameNotFound, Field: "Game", Message: "game not found"}
	// ErrNoActiveGame is returned by CurrentGame when the user has no waiting or active game.
	ErrNoActiveGame = &Error{Kind: KindGameNotFound, Field: "Game", Message: "no active pair for current user"}
	ErrInternal     = &Error{Kind: KindInternal, Field: "Game", Message: "internal error"}
)

var (
	// ErrConstraintViolation is reported by stores when an insert hits a uniqueness constraint.
	ErrConstraintViolation = errors.New("unique constraint violated")
	// ErrRowMissing is reported by stores when an update finds no row to write.
	ErrRowMissing = errors.New("row missing on update")
	// ErrIllegalTransition is returned when a game is narrowed to a status it does not have.
	ErrIllegalTransition = errors.New("illegal game status transition")
)
