package redis

import (
	"context"
	"testing"
	"time"

	"pair-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNotifierRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	publisher := NewNotifier(newClient(mr))
	subscriber := NewNotifier(newClient(mr))

	events, cancel, err := subscriber.Subscribe(ctx, "g1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := publisher.Publish(ctx, domain.GameEvent{GameID: "g1", Status: domain.StatusFinished}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-events:
		if ev.GameID != "g1" || ev.Status != domain.StatusFinished {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
