package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
)

func TestServicePublishesGameEvents(t *testing.T) {
	notifier := memory.NewNotifier()
	f := newFixture(t, capitals(), app.WithClock(newStepClock().Now), app.WithNotifier(notifier))
	waiting := f.connect(t, "x")

	events, cancel, err := f.service.Subscribe(context.Background(), waiting.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	snap := f.connect(t, "y")
	if ev := nextEvent(t, events); ev.GameID != snap.ID || ev.Status != domain.StatusActive {
		t.Fatalf("unexpected join event %+v", ev)
	}

	f.answerAll(t, "x", snap)
	for i := 0; i < domain.QuestionsPerGame; i++ {
		if ev := nextEvent(t, events); ev.Status != domain.StatusActive {
			t.Fatalf("unexpected answer event %+v", ev)
		}
	}
	f.answerAll(t, "y", snap)
	var last domain.GameEvent
	for i := 0; i < domain.QuestionsPerGame; i++ {
		last = nextEvent(t, events)
	}
	if last.Status != domain.StatusFinished {
		t.Fatalf("expected finished event last, got %+v", last)
	}
}

func TestSubscribeWithoutNotifier(t *testing.T) {
	f := newFixture(t, capitals())
	if _, _, err := f.service.Subscribe(context.Background(), "g1"); err == nil {
		t.Fatalf("expected error without notifier")
	}
}

func TestCurrentGameWithoutGame(t *testing.T) {
	f := newFixture(t, capitals())
	_, err := f.service.CurrentGame(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNoActiveGame) || domain.KindOf(err) != domain.KindGameNotFound {
		t.Fatalf("expected GameNotFound, got %v", err)
	}
}

func nextEvent(t *testing.T, ch <-chan domain.GameEvent) domain.GameEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for game event")
		return domain.GameEvent{}
	}
}
