package domain

import (
	"sort"
	"time"
)

// AnswerStatus is the client-facing correctness of an answer.
type AnswerStatus string

const (
	AnswerCorrect   AnswerStatus = "Correct"
	AnswerIncorrect AnswerStatus = "Incorrect"
)

// AnswerRecord is the outcome of one submission.
type AnswerRecord struct {
	QuestionID   string       `json:"questionId"`
	AnswerStatus AnswerStatus `json:"answerStatus"`
	AddedAt      time.Time    `json:"addedAt"`
}

func (r AnswerRecord) Correct() bool { return r.AnswerStatus == AnswerCorrect }

// NewAnswerRecord builds the view of answer a given to gq.
func NewAnswerRecord(a Answer, gq GameQuestion) AnswerRecord {
	status := AnswerIncorrect
	if a.Correct {
		status = AnswerCorrect
	}
	return AnswerRecord{QuestionID: gq.QuestionID, AnswerStatus: status, AddedAt: a.AddedAt}
}

// PlayerProgress is one player's view inside a GameSnapshot.
type PlayerProgress struct {
	UserID  string         `json:"userId"`
	Score   int            `json:"score"`
	Answers []AnswerRecord `json:"answers"`
}

// QuestionView exposes a question without its accepted answers.
type QuestionView struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// GameSnapshot is the full client view of a game.
type GameSnapshot struct {
	ID                   string          `json:"id"`
	Status               GameStatus      `json:"status"`
	FirstPlayerProgress  PlayerProgress  `json:"firstPlayerProgress"`
	SecondPlayerProgress *PlayerProgress `json:"secondPlayerProgress"`
	Questions            []QuestionView  `json:"questions"`
	PairCreatedDate      time.Time       `json:"pairCreatedDate"`
	StartGameDate        *time.Time      `json:"startGameDate"`
	FinishGameDate       *time.Time      `json:"finishGameDate"`
}

// BuildSnapshot assembles the view from freshly loaded rows.
// Questions and the second player are withheld while the game is waiting.
func BuildSnapshot(game Game, players []Player, questions []GameQuestion, answers []Answer) GameSnapshot {
	snap := GameSnapshot{
		ID:              game.ID,
		Status:          game.Status,
		PairCreatedDate: game.CreatedAt,
		StartGameDate:   game.StartedAt,
		FinishGameDate:  game.FinishedAt,
	}

	byID := make(map[string]GameQuestion, len(questions))
	ordered := append([]GameQuestion(nil), questions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	for _, gq := range ordered {
		byID[gq.ID] = gq
	}

	progress := func(p Player) PlayerProgress {
		out := PlayerProgress{UserID: p.UserID, Score: p.Score, Answers: []AnswerRecord{}}
		var own []Answer
		for _, a := range answers {
			if a.PlayerID == p.ID {
				own = append(own, a)
			}
		}
		sort.Slice(own, func(i, j int) bool {
			return byID[own[i].GameQuestionID].Order < byID[own[j].GameQuestionID].Order
		})
		for _, a := range own {
			out.Answers = append(out.Answers, NewAnswerRecord(a, byID[a.GameQuestionID]))
		}
		return out
	}

	for _, p := range players {
		switch p.Role {
		case RoleFirst:
			snap.FirstPlayerProgress = progress(p)
		case RoleSecond:
			if game.IsWaiting() {
				continue
			}
			second := progress(p)
			snap.SecondPlayerProgress = &second
		}
	}

	if !game.IsWaiting() {
		snap.Questions = make([]QuestionView, 0, len(ordered))
		for _, gq := range ordered {
			snap.Questions = append(snap.Questions, QuestionView{ID: gq.QuestionID, Body: gq.Question.Body})
		}
	}
	return snap
}
