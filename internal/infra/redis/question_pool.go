package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the published question bank from a backing store.
type QuestionLoader = memory.QuestionLoader

// QuestionPool caches the published questions in Redis and draws random samples from them.
// Questions are stored as: HSET pairgame:questions {questionID} {json}
type QuestionPool struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionPool(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionPool {
	return &QuestionPool{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

const questionsKey = "pairgame:questions"

// DrawRandom returns up to n distinct published questions in random order.
func (p *QuestionPool) DrawRandom(ctx context.Context, n int) ([]domain.Question, error) {
	pool, err := p.published(ctx)
	if err != nil {
		return nil, err
	}
	return memory.Sample(pool, n), nil
}

// Invalidate drops the cached pool, e.g. after the question bank was imported.
func (p *QuestionPool) Invalidate(ctx context.Context) error {
	return p.client.Del(ctx, questionsKey).Err()
}

func (p *QuestionPool) published(ctx context.Context) ([]domain.Question, error) {
	cached, err := p.client.HGetAll(ctx, questionsKey).Result()
	if err == nil && len(cached) > 0 {
		return decodeQuestions(cached)
	}

	result, err, _ := p.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := p.client.HGetAll(ctx, questionsKey).Result()
		if err == nil && len(cached) > 0 {
			return decodeQuestions(cached)
		}

		loaded, err := p.loader.LoadPublished(ctx)
		if err != nil {
			return nil, err
		}
		questions := make([]domain.Question, 0, len(loaded))
		for _, q := range loaded {
			if q.Published {
				questions = append(questions, q)
			}
		}

		if len(questions) > 0 {
			pipe := p.client.TxPipeline()
			for _, q := range questions {
				raw, err := json.Marshal(q)
				if err != nil {
					return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
				}
				pipe.HSet(ctx, questionsKey, q.ID, raw)
			}
			if ttl := memory.TTLWithJitter(p.ttl); ttl > 0 {
				pipe.Expire(ctx, questionsKey, ttl)
			}
			_, _ = pipe.Exec(ctx)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func decodeQuestions(cached map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode cached question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
