package quiz

import (
	"time"

	"github.com/example/hanzi/pkg/models"
	"github.com/google/uuid"
)

// Kind represents different types of quizzes
type Kind string

const (
	// KindTranslation asks for the English translation of a character
	KindTranslation Kind = "translation"
	// KindSentenceBlank asks which character fills the blank in its example
	// sentence
	KindSentenceBlank Kind = "sentence_blank"
)

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTranslation, KindSentenceBlank:
		return Kind(s), nil
	}
	return "", ErrUnknownKind
}

// State of a quiz session
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

type subject struct {
	character models.Character
	sentence  *models.Sentence
}

// Session holds the in-memory state of one quiz. Discarding it abandons the
// quiz; nothing is held in the store.
type Session struct {
	ID     uuid.UUID
	UserID int64
	Kind   Kind
	Length int // requested number of questions

	state    State
	pool     []subject          // questions, drawn at start
	eligible []models.Character // characters usable for this kind
	viewed   []models.Character // the whole viewed set
	index    int
	score    int
	current  *Question
	answered bool

	startedAt time.Time
	result    *Result
}

// State returns the current state
func (s *Session) State() State { return s.state }

// Score returns the number of correct answers so far
func (s *Session) Score() int { return s.score }

// Index returns the 0-based position of the current question
func (s *Session) Index() int { return s.index }

// Total returns the number of questions in the session, which may be lower
// than the requested length when the user has viewed fewer characters.
func (s *Session) Total() int { return len(s.pool) }

// Result returns the final result once the session is complete
func (s *Session) Result() *Result { return s.result }

// SubjectIDs returns the character ids of all questions in order
func (s *Session) SubjectIDs() []int64 {
	ids := make([]int64, len(s.pool))
	for i, p := range s.pool {
		ids[i] = p.character.ID
	}
	return ids
}

func (s *Session) reset() {
	s.state = StateNotStarted
	s.pool = nil
	s.eligible = nil
	s.viewed = nil
	s.index = 0
	s.score = 0
	s.current = nil
	s.answered = false
	s.result = nil
}

// Question is a multiple choice question
type Question struct {
	Number       int      `json:"number"` // 1-based
	Total        int      `json:"total"`
	CharacterID  int64    `json:"character_id"`
	Prompt       string   `json:"prompt"`
	Pinyin       string   `json:"pinyin,omitempty"`
	Hint         string   `json:"hint,omitempty"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
}

// Answer is the grading of a submitted choice
type Answer struct {
	Correct       bool   `json:"correct"`
	CorrectIndex  int    `json:"correct_index"`
	CorrectOption string `json:"correct_option"`
}

// Result is the final score of a completed session
type Result struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
