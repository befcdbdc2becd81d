package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionPoolCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions(6)),
	}
	pool := NewQuestionPool(client, loader, time.Minute)

	drawn, err := pool.DrawRandom(context.Background(), domain.QuestionsPerGame)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(drawn) != domain.QuestionsPerGame {
		t.Fatalf("expected %d questions, got %d", domain.QuestionsPerGame, len(drawn))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(questionsKey) {
		t.Fatalf("expected redis hash to be filled")
	}
	if ttl := mr.TTL(questionsKey); ttl < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	again, err := pool.DrawRandom(context.Background(), domain.QuestionsPerGame)
	if err != nil {
		t.Fatalf("draw 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	for _, q := range again {
		if len(q.CorrectAnswers) == 0 || q.Body == "" {
			t.Fatalf("cached question lost fields: %+v", q)
		}
	}

	if err := pool.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = pool.DrawRandom(context.Background(), 1)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuestionPoolReturnsShortSample(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	pool := NewQuestionPool(newClient(mr), memory.NewStaticQuestionLoader(sampleQuestions(3)), time.Minute)
	drawn, err := pool.DrawRandom(context.Background(), domain.QuestionsPerGame)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(drawn) != 3 {
		t.Fatalf("expected the whole pool of 3, got %d", len(drawn))
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadPublished(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadPublished(ctx)
}

func sampleQuestions(n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Question{
			ID:             fmt.Sprintf("q%d", i),
			Body:           fmt.Sprintf("What is %d + %d?", i, i),
			CorrectAnswers: []string{fmt.Sprint(2 * i)},
			Published:      true,
		})
	}
	return out
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
