package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pair-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the published question bank from a backing store.
type QuestionLoader interface {
	LoadPublished(ctx context.Context) ([]domain.Question, error)
}

// QuestionPool caches the published questions with a TTL and draws random samples from them.
type QuestionPool struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionPool(loader QuestionLoader, ttl time.Duration) *QuestionPool {
	return &QuestionPool{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
	}
}

// DrawRandom returns up to n distinct published questions in random order.
func (p *QuestionPool) DrawRandom(ctx context.Context, n int) ([]domain.Question, error) {
	pool, err := p.published(ctx)
	if err != nil {
		return nil, err
	}
	return Sample(pool, n), nil
}

// Invalidate drops the cached pool so the next draw reloads it.
func (p *QuestionPool) Invalidate() {
	p.mu.Lock()
	p.questions = nil
	p.expiresAt = time.Time{}
	p.mu.Unlock()
}

func (p *QuestionPool) published(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := p.cached(); ok {
		return pool, nil
	}

	result, err, _ := p.sf.Do("published", func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if pool, ok := p.cached(); ok {
			return pool, nil
		}
		loaded, err := p.loader.LoadPublished(ctx)
		if err != nil {
			return nil, err
		}
		pool := onlyPublished(loaded)

		p.mu.Lock()
		p.questions = pool
		p.expiresAt = p.clock().Add(TTLWithJitter(p.ttl))
		p.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (p *QuestionPool) cached() ([]domain.Question, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.questions != nil && p.expiresAt.After(p.clock()) {
		return p.questions, true
	}
	return nil, false
}

// StaticQuestionLoader is a simple loader backed by a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadPublished(_ context.Context) ([]domain.Question, error) {
	return onlyPublished(l.questions), nil
}

func onlyPublished(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Published {
			out = append(out, q)
		}
	}
	return out
}

// Sample picks up to n questions without replacement, in random order.
func Sample(pool []domain.Question, n int) []domain.Question {
	idx := rand.Perm(len(pool))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]domain.Question, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}

// TTLWithJitter adds up to 10% to ttl so cache expirations spread out.
func TTLWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rand.Int63n(jitterMax+1))
}
