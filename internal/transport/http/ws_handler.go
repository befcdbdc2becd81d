package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.PairGameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PairGameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type gamePayload struct {
	GameID string `json:"gameId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

const kindInvalidMessage = "InvalidMessage"

func errorMessage(err error) outboundMessage[any] {
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Kind != domain.KindInternal {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: string(derr.Kind), Field: derr.Field, Message: derr.Message}}
	}
	log.Printf("ws request failed: %v", err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: string(domain.KindInternal), Message: "internal error"}}
}

func invalidMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: kindInvalidMessage, Message: msg}}
}

// session is the per-connection state shared by the read loop and the event forwarder.
type session struct {
	ctx     context.Context
	userID  string
	service *app.PairGameService
	send    chan outboundMessage[any]
	closing chan struct{}

	wg       sync.WaitGroup
	gameID   string
	unfollow func()
}

func (s *session) push(msg outboundMessage[any]) bool {
	select {
	case s.send <- msg:
		return true
	case <-s.closing:
		return false
	}
}

// follow switches the event subscription to gameID. Only the read loop calls it.
func (s *session) follow(gameID string) {
	if gameID == s.gameID {
		return
	}
	if s.unfollow != nil {
		s.unfollow()
		s.unfollow = nil
	}
	s.gameID = gameID

	events, cancel, err := s.service.Subscribe(s.ctx, gameID)
	if err != nil {
		log.Printf("subscribe to game %s: %v", gameID, err)
		return
	}
	s.unfollow = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
				snap, err := s.service.GameByID(s.ctx, gameID, s.userID)
				if err != nil {
					if !s.push(errorMessage(err)) {
						return
					}
					continue
				}
				if !s.push(outboundMessage[any]{Type: "game", Payload: snap}) {
					return
				}
			case <-s.closing:
				return
			}
		}
	}()
}

// ServeWS upgrades HTTP requests to websockets and wires them into the pair game use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := &session{
		ctx:     r.Context(),
		userID:  userID,
		service: h.service,
		send:    make(chan outboundMessage[any], 16),
		closing: make(chan struct{}),
	}
	writerDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range sess.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(sess, inbound)
	}

	close(sess.closing)
	if sess.unfollow != nil {
		sess.unfollow()
	}
	sess.wg.Wait()
	close(sess.send)
	<-writerDone
}

func (h *WSHandler) dispatch(sess *session, inbound inboundMessage) {
	ctx := sess.ctx
	switch inbound.Type {
	case "connect":
		snap, err := h.service.Connect(ctx, sess.userID)
		if err != nil {
			sess.push(errorMessage(err))
			return
		}
		sess.follow(snap.ID)
		sess.push(outboundMessage[any]{Type: "game", Payload: snap})
	case "current":
		snap, err := h.service.CurrentGame(ctx, sess.userID)
		if err != nil {
			sess.push(errorMessage(err))
			return
		}
		sess.follow(snap.ID)
		sess.push(outboundMessage[any]{Type: "game", Payload: snap})
	case "game":
		var payload gamePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.GameID == "" {
			sess.push(invalidMessage("invalid game payload"))
			return
		}
		snap, err := h.service.GameByID(ctx, payload.GameID, sess.userID)
		if err != nil {
			sess.push(errorMessage(err))
			return
		}
		sess.push(outboundMessage[any]{Type: "game", Payload: snap})
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sess.push(invalidMessage("invalid answer payload"))
			return
		}
		record, err := h.service.SubmitAnswer(ctx, sess.userID, payload.Answer)
		if err != nil {
			sess.push(errorMessage(err))
			return
		}
		sess.push(outboundMessage[any]{Type: "answerResult", Payload: record})
	default:
		sess.push(invalidMessage("unsupported message type"))
	}
}
