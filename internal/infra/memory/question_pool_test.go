package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pair-quiz-service/internal/domain"
)

func TestQuestionPoolCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions(6)),
	}
	pool := NewQuestionPool(loader, time.Minute)

	drawn, err := pool.DrawRandom(context.Background(), 5)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(drawn) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(drawn))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := pool.DrawRandom(context.Background(), 5); err != nil {
		t.Fatalf("draw 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	pool.Invalidate()
	if _, err := pool.DrawRandom(context.Background(), 5); err != nil {
		t.Fatalf("draw 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuestionPoolDrawsDistinctPublishedQuestions(t *testing.T) {
	questions := sampleQuestions(4)
	questions = append(questions, domain.Question{ID: "draft", Body: "draft", CorrectAnswers: []string{"x"}})
	pool := NewQuestionPool(NewStaticQuestionLoader(questions), time.Minute)

	drawn, err := pool.DrawRandom(context.Background(), 5)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(drawn) != 4 {
		t.Fatalf("expected only the 4 published questions, got %d", len(drawn))
	}
	seen := make(map[string]bool)
	for _, q := range drawn {
		if q.ID == "draft" {
			t.Fatalf("unpublished question drawn")
		}
		if seen[q.ID] {
			t.Fatalf("question %s drawn twice", q.ID)
		}
		seen[q.ID] = true
	}
}

type countingLoader struct {
	QuestionLoader
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
			CorrectAnswers: []string{fmt.Sprint(i + i)},
			Published:      true,
		})
	}
	return out
}

func TestSampleWithoutReplacement(t *testing.T) {
	pool := sampleQuestions(8)
	got := Sample(pool, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(got))
	}
	seen := make(map[string]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("question %s drawn twice", q.ID)
		}
		seen[q.ID] = true
	}
	if short := Sample(pool[:2], 5); len(short) != 2 {
		t.Fatalf("short pool should return what it has, got %d", len(short))
	}
}

func TestTTLWithJitterBounds(t *testing.T) {
	if got := TTLWithJitter(0); got != 0 {
		t.Fatalf("zero ttl must stay zero, got %s", got)
	}
	for i := 0; i < 100; i++ {
		got := TTLWithJitter(time.Minute)
		if got < time.Minute || got > time.Minute+6*time.Second {
			t.Fatalf("ttl %s outside [1m, 1m6s]", got)
		}
	}
}
