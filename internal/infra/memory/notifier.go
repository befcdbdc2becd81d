package memory

import (
	"context"
	"sync"

	"pair-quiz-service/internal/domain"
)

// Notifier is an in-process implementation of app.Notifier.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.GameEvent]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[string]map[chan domain.GameEvent]struct{})}
}

func (n *Notifier) Publish(_ context.Context, event domain.GameEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subscribers[event.GameID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop the stale event so the newest one gets through.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

func (n *Notifier) Subscribe(_ context.Context, gameID string) (<-chan domain.GameEvent, func(), error) {
	ch := make(chan domain.GameEvent, 8)

	n.mu.Lock()
	subs, ok := n.subscribers[gameID]
	if !ok {
		subs = make(map[chan domain.GameEvent]struct{})
		n.subscribers[gameID] = subs
	}
	subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.subscribers[gameID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(n.subscribers, gameID)
		}
	}
	return ch, cancel, nil
}
