package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
)

// stepClock advances by one second on every read, so consecutive finishes are strictly ordered.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store   *memory.Store
	service *app.PairGameService
	bank    map[string]domain.Question
}

func newFixture(t *testing.T, questions []domain.Question, opts ...app.Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	pool := memory.NewQuestionPool(memory.NewStaticQuestionLoader(questions), time.Minute)
	bank := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		bank[q.ID] = q
	}
	if len(opts) == 0 {
		opts = []app.Option{app.WithClock(newStepClock().Now)}
	}
	return &fixture{
		store:   store,
		service: app.NewPairGameService(store, pool, opts...),
		bank:    bank,
	}
}

func capitals() []domain.Question {
	return []domain.Question{
		{ID: "q-fr", Body: "Capital of France?", CorrectAnswers: []string{"paris"}, Published: true},
		{ID: "q-de", Body: "Capital of Germany?", CorrectAnswers: []string{"berlin"}, Published: true},
		{ID: "q-it", Body: "Capital of Italy?", CorrectAnswers: []string{"rome", "roma"}, Published: true},
		{ID: "q-es", Body: "Capital of Spain?", CorrectAnswers: []string{"madrid"}, Published: true},
		{ID: "q-pt", Body: "Capital of Portugal?", CorrectAnswers: []string{"lisbon", "lisboa"}, Published: true},
	}
}

func numbered(n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Question{
			ID:             fmt.Sprintf("q%d", i),
			Body:           fmt.Sprintf("%d + %d?", i, i),
			CorrectAnswers: []string{fmt.Sprint(2 * i)},
			Published:      true,
		})
	}
	return out
}

// correctAnswer returns an accepted answer for the game's question at order.
func (f *fixture) correctAnswer(t *testing.T, snap domain.GameSnapshot, order int) string {
	t.Helper()
	if order >= len(snap.Questions) {
		t.Fatalf("snapshot has %d questions, want order %d", len(snap.Questions), order)
	}
	q, ok := f.bank[snap.Questions[order].ID]
	if !ok {
		t.Fatalf("question %s not in bank", snap.Questions[order].ID)
	}
	return q.CorrectAnswers[0]
}

func (f *fixture) connect(t *testing.T, userID string) domain.GameSnapshot {
	t.Helper()
	snap, err := f.service.Connect(context.Background(), userID)
	if err != nil {
		t.Fatalf("connect %s: %v", userID, err)
	}
	return snap
}

func (f *fixture) answerAll(t *testing.T, userID string, snap domain.GameSnapshot) {
	t.Helper()
	for i := 0; i < domain.QuestionsPerGame; i++ {
		rec, err := f.service.SubmitAnswer(context.Background(), userID, f.correctAnswer(t, snap, i))
		if err != nil {
			t.Fatalf("answer %d for %s: %v", i, userID, err)
		}
		if !rec.Correct() {
			t.Fatalf("answer %d for %s recorded as %s", i, userID, rec.AnswerStatus)
		}
	}
}

func (f *fixture) players(t *testing.T, gameID string) []domain.Player {
	t.Helper()
	var players []domain.Player
	err := f.store.View(context.Background(), func(ctx context.Context, tx app.Tx) error {
		var err error
		players, err = tx.Players().ListByGame(ctx, gameID)
		return err
	})
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	return players
}

func (f *fixture) game(t *testing.T, gameID string) domain.Game {
	t.Helper()
	var game domain.Game
	err := f.store.View(context.Background(), func(ctx context.Context, tx app.Tx) error {
		g, ok, err := tx.Games().Get(ctx, gameID)
		if !ok {
			t.Fatalf("game %s not found", gameID)
		}
		game = g
		return err
	})
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	return game
}
