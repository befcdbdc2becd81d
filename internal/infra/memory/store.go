package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/domain"
)

var errReadOnly = errors.New("write in read-only transaction")

// Store is an in-memory implementation of app.UnitOfWork.
// Units of work are serialized by one lock and applied copy-on-write, so a failed
// unit leaves no trace. Uniqueness rules mirror the SQL schema.
type Store struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	seq       int64
	games     map[string]gameRow
	players   map[string]domain.Player
	questions map[string]domain.GameQuestion
	answers   map[string]domain.Answer
}

type gameRow struct {
	game domain.Game
	seq  int64
}

func NewStore() *Store {
	return &Store{state: state{
		games:     make(map[string]gameRow),
		players:   make(map[string]domain.Player),
		questions: make(map[string]domain.GameQuestion),
		answers:   make(map[string]domain.Answer),
	}}
}

func (s state) clone() state {
	out := state{
		seq:       s.seq,
		games:     make(map[string]gameRow, len(s.games)),
		players:   make(map[string]domain.Player, len(s.players)),
		questions: make(map[string]domain.GameQuestion, len(s.questions)),
		answers:   make(map[string]domain.Answer, len(s.answers)),
	}
	for k, v := range s.games {
		out.games[k] = v
	}
	for k, v := range s.players {
		out.players[k] = v
	}
	for k, v := range s.questions {
		out.questions[k] = v
	}
	for k, v := range s.answers {
		out.answers[k] = v
	}
	return out
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{st: &work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &tx{st: &s.state, readOnly: true})
}

type tx struct {
	st       *state
	readOnly bool
}

func (t *tx) Games() app.GameStore     { return gameStore{t} }
func (t *tx) Players() app.PlayerStore { return playerStore{t} }
func (t *tx) Turns() app.TurnStore     { return turnStore{t} }

type gameStore struct{ *tx }

func (g gameStore) Create(_ context.Context, game domain.Game) error {
	if g.readOnly {
		return errReadOnly
	}
	if _, ok := g.st.games[game.ID]; ok {
		return domain.ErrConstraintViolation
	}
	g.st.seq++
	g.st.games[game.ID] = gameRow{game: game, seq: g.st.seq}
	return nil
}

func (g gameStore) Get(_ context.Context, id string) (domain.Game, bool, error) {
	row, ok := g.st.games[id]
	return row.game, ok, nil
}

// GetForUpdate needs no extra locking: the whole unit of work holds the store lock.
func (g gameStore) GetForUpdate(ctx context.Context, id string) (domain.Game, bool, error) {
	return g.Get(ctx, id)
}

func (g gameStore) FindCurrentByUser(_ context.Context, userID string) (domain.Game, bool, error) {
	return g.findByUser(userID, domain.StatusWaiting, domain.StatusActive)
}

func (g gameStore) FindActiveByUser(_ context.Context, userID string) (domain.Game, bool, error) {
	return g.findByUser(userID, domain.StatusActive)
}

func (g gameStore) findByUser(userID string, statuses ...domain.GameStatus) (domain.Game, bool, error) {
	for _, p := range g.st.players {
		if p.UserID != userID {
			continue
		}
		row, ok := g.st.games[p.GameID]
		if !ok {
			continue
		}
		for _, status := range statuses {
			if row.game.Status == status {
				return row.game, true, nil
			}
		}
	}
	return domain.Game{}, false, nil
}

// LockUser is a no-op: the store already runs one unit of work at a time.
func (g gameStore) LockUser(context.Context, string) error { return nil }

func (g gameStore) ClaimWaiting(_ context.Context, userID string) (domain.Game, bool, error) {
	if g.readOnly {
		return domain.Game{}, false, errReadOnly
	}
	joined := make(map[string]bool)
	for _, p := range g.st.players {
		if p.UserID == userID {
			joined[p.GameID] = true
		}
	}
	var (
		best  gameRow
		found bool
	)
	for id, row := range g.st.games {
		if row.game.Status != domain.StatusWaiting || joined[id] {
			continue
		}
		if !found || olderThan(row, best) {
			best, found = row, true
		}
	}
	return best.game, found, nil
}

func olderThan(a, b gameRow) bool {
	if !a.game.CreatedAt.Equal(b.game.CreatedAt) {
		return a.game.CreatedAt.Before(b.game.CreatedAt)
	}
	return a.seq < b.seq
}

func (g gameStore) Update(_ context.Context, game domain.Game) error {
	if g.readOnly {
		return errReadOnly
	}
	row, ok := g.st.games[game.ID]
	if !ok {
		return fmt.Errorf("update game %s: %w", game.ID, domain.ErrRowMissing)
	}
	row.game = game
	g.st.games[game.ID] = row
	return nil
}

type playerStore struct{ *tx }

func (p playerStore) Create(_ context.Context, player domain.Player) error {
	if p.readOnly {
		return errReadOnly
	}
	for _, existing := range p.st.players {
		if existing.GameID != player.GameID {
			continue
		}
		if existing.UserID == player.UserID || existing.Role == player.Role {
			return domain.ErrConstraintViolation
		}
	}
	p.st.players[player.ID] = player
	return nil
}

func (p playerStore) Find(_ context.Context, gameID, userID string) (domain.Player, bool, error) {
	for _, player := range p.st.players {
		if player.GameID == gameID && player.UserID == userID {
			return player, true, nil
		}
	}
	return domain.Player{}, false, nil
}

func (p playerStore) FindForUpdate(ctx context.Context, gameID, userID string) (domain.Player, bool, error) {
	return p.Find(ctx, gameID, userID)
}

func (p playerStore) ListByGame(_ context.Context, gameID string) ([]domain.Player, error) {
	var out []domain.Player
	for _, player := range p.st.players {
		if player.GameID == gameID {
			out = append(out, player)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (p playerStore) Update(_ context.Context, player domain.Player) error {
	if p.readOnly {
		return errReadOnly
	}
	if _, ok := p.st.players[player.ID]; !ok {
		return fmt.Errorf("update player %s: %w", player.ID, domain.ErrRowMissing)
	}
	p.st.players[player.ID] = player
	return nil
}

type turnStore struct{ *tx }

func (t turnStore) AssignQuestions(_ context.Context, questions []domain.GameQuestion) error {
	if t.readOnly {
		return errReadOnly
	}
	for _, q := range questions {
		for _, existing := range t.st.questions {
			if existing.GameID == q.GameID && existing.Order == q.Order {
				return domain.ErrConstraintViolation
			}
		}
		t.st.questions[q.ID] = q
	}
	return nil
}

func (t turnStore) ListQuestions(_ context.Context, gameID string) ([]domain.GameQuestion, error) {
	var out []domain.GameQuestion
	for _, q := range t.st.questions {
		if q.GameID == gameID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (t turnStore) QuestionAt(_ context.Context, gameID string, order int) (domain.GameQuestion, bool, error) {
	for _, q := range t.st.questions {
		if q.GameID == gameID && q.Order == order {
			return q, true, nil
		}
	}
	return domain.GameQuestion{}, false, nil
}

func (t turnStore) CountAnswers(_ context.Context, playerID string) (int, error) {
	n := 0
	for _, a := range t.st.answers {
		if a.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func (t turnStore) FindAnswer(_ context.Context, gameQuestionID, playerID string) (domain.Answer, bool, error) {
	for _, a := range t.st.answers {
		if a.GameQuestionID == gameQuestionID && a.PlayerID == playerID {
			return a, true, nil
		}
	}
	return domain.Answer{}, false, nil
}

func (t turnStore) CreateAnswer(ctx context.Context, answer domain.Answer) error {
	if t.readOnly {
		return errReadOnly
	}
	if _, ok, _ := t.FindAnswer(ctx, answer.GameQuestionID, answer.PlayerID); ok {
		return domain.ErrConstraintViolation
	}
	t.st.answers[answer.ID] = answer
	return nil
}

func (t turnStore) ListAnswers(_ context.Context, playerIDs []string) ([]domain.Answer, error) {
	wanted := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		wanted[id] = true
	}
	var out []domain.Answer
	for _, a := range t.st.answers {
		if wanted[a.PlayerID] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}
