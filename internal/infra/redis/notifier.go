package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"pair-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Notifier fans game events out over Redis pub/sub so every service instance sees them.
// Channel per game: pairgame:game:{gameID}
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, event domain.GameEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, channel(event.GameID), raw).Err()
}

// Subscribe confirms the subscription before returning, so no event published afterwards is missed.
func (n *Notifier) Subscribe(ctx context.Context, gameID string) (<-chan domain.GameEvent, func(), error) {
	sub := n.client.Subscribe(ctx, channel(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe to game %s: %w", gameID, err)
	}

	out := make(chan domain.GameEvent, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.GameEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("drop malformed game event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}

func channel(gameID string) string {
	return "pairgame:game:" + gameID
}
