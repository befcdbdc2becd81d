package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	pool := memory.NewQuestionPool(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	service := app.NewPairGameService(memory.NewStore(), pool, app.WithNotifier(memory.NewNotifier()))
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages until one of type typ satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
}

func decodeSnapshot(t *testing.T, raw json.RawMessage) domain.GameSnapshot {
	t.Helper()
	var snap domain.GameSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func hasStatus(status domain.GameStatus) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var snap domain.GameSnapshot
		return json.Unmarshal(raw, &snap) == nil && snap.Status == status
	}
}

func TestWebSocketPairGameFlow(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")

	send(t, alice, "connect", nil)
	waiting := decodeSnapshot(t, readUntil(t, alice, "game", nil))
	if waiting.Status != domain.StatusWaiting || waiting.SecondPlayerProgress != nil || len(waiting.Questions) != 0 {
		t.Fatalf("unexpected waiting snapshot: %+v", waiting)
	}

	send(t, bob, "connect", nil)
	joined := decodeSnapshot(t, readUntil(t, bob, "game", nil))
	if joined.ID != waiting.ID || joined.Status != domain.StatusActive {
		t.Fatalf("bob should join alice's game: %+v", joined)
	}
	if len(joined.Questions) != domain.QuestionsPerGame {
		t.Fatalf("expected %d questions, got %d", domain.QuestionsPerGame, len(joined.Questions))
	}

	// Alice is pushed the activation by the notifier.
	readUntil(t, alice, "game", hasStatus(domain.StatusActive))

	for i := 0; i < domain.QuestionsPerGame; i++ {
		send(t, alice, "answer", map[string]string{"answer": " 42 "})
		raw := readUntil(t, alice, "answerResult", nil)
		var record domain.AnswerRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			t.Fatalf("decode answer result: %v", err)
		}
		if !record.Correct() {
			t.Fatalf("answer %d should be correct: %+v", i, record)
		}
	}
	for i := 0; i < domain.QuestionsPerGame; i++ {
		send(t, bob, "answer", map[string]string{"answer": "no idea"})
		readUntil(t, bob, "answerResult", nil)
	}

	final := decodeSnapshot(t, readUntil(t, alice, "game", hasStatus(domain.StatusFinished)))
	if final.FinishGameDate == nil {
		t.Fatalf("finished game must carry a finish date")
	}
	// five correct answers plus the early-finish bonus
	if final.FirstPlayerProgress.Score != domain.QuestionsPerGame+1 {
		t.Fatalf("alice score = %d", final.FirstPlayerProgress.Score)
	}
	if final.SecondPlayerProgress == nil || final.SecondPlayerProgress.Score != 0 {
		t.Fatalf("bob progress = %+v", final.SecondPlayerProgress)
	}
	readUntil(t, bob, "game", hasStatus(domain.StatusFinished))
}

func TestWebSocketErrors(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "carol")

	send(t, conn, "answer", map[string]string{"answer": "paris"})
	var payload errorPayload
	if err := json.Unmarshal(readUntil(t, conn, "error", nil), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Kind != string(domain.KindNotParticipant) {
		t.Fatalf("expected NotParticipant, got %+v", payload)
	}

	send(t, conn, "current", nil)
	if err := json.Unmarshal(readUntil(t, conn, "error", nil), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Kind != string(domain.KindGameNotFound) {
		t.Fatalf("expected GameNotFound, got %+v", payload)
	}

	send(t, conn, "connect", nil)
	readUntil(t, conn, "game", nil)
	send(t, conn, "connect", nil)
	if err := json.Unmarshal(readUntil(t, conn, "error", nil), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Kind != string(domain.KindAlreadyInGame) {
		t.Fatalf("expected AlreadyInGame, got %+v", payload)
	}

	send(t, conn, "dance", nil)
	if err := json.Unmarshal(readUntil(t, conn, "error", nil), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Kind != kindInvalidMessage {
		t.Fatalf("expected InvalidMessage, got %+v", payload)
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func sampleQuestions() []domain.Question {
	out := make([]domain.Question, 0, domain.QuestionsPerGame)
	for i := 0; i < domain.QuestionsPerGame; i++ {
		out = append(out, domain.Question{
			ID:             fmt.Sprintf("q%d", i),
			Body:           fmt.Sprintf("Question %d: the answer to everything?", i),
			CorrectAnswers: []string{"42"},
			Published:      true,
		})
	}
	return out
}
