package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/hanzi/internal/database"
	"github.com/example/hanzi/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Blank replaces the character in a sentence blank prompt
	Blank = "___"

	distractorCount = 3
)

// ProgressSource provides the viewed set of a user, most recent first
type ProgressSource interface {
	ViewedCharacterIDs(ctx context.Context, userID int64) ([]int64, error)
}

// ContentSource provides characters and their example sentences. A missing
// sentence is reported with an error wrapping database.ErrNotFound.
type ContentSource interface {
	GetCharacters(ctx context.Context, ids []int64) ([]models.Character, error)
	GetSentenceByCharacterID(ctx context.Context, characterID int64) (*models.Sentence, error)
}

// ResultRecorder persists finished sessions
type ResultRecorder interface {
	Create(ctx context.Context, result *models.QuizResult) error
}

// Engine builds and grades quiz sessions
type Engine struct {
	progress ProgressSource
	content  ContentSource
	recorder ResultRecorder
	log      *zap.Logger
	now      func() time.Time

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the random source used for sampling and shuffling
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) { e.rnd = rnd }
}

// WithRecorder stores a QuizResult for every completed session
func WithRecorder(r ResultRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the clock used for result timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a quiz engine
func NewEngine(progress ProgressSource, content ContentSource, opts ...Option) *Engine {
	e := &Engine{
		progress: progress,
		content:  content,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// NewSession creates a session that has not been started
func (e *Engine) NewSession(userID int64, kind Kind, length int) *Session {
	return &Session{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
		Length: length,
	}
}

// StartQuiz creates and starts a session
func (e *Engine) StartQuiz(ctx context.Context, userID int64, kind Kind, length int) (*Session, error) {
	s := e.NewSession(userID, kind, length)
	if err := e.Start(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Start draws the questions of a session from the user's viewed set. The
// number of questions is the requested length clamped to the number of
// eligible characters; no character is asked twice.
func (e *Engine) Start(ctx context.Context, s *Session) error {
	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return err
	}
	if s.Length < 1 {
		return ErrInvalidLength
	}

	ids, err := e.progress.ViewedCharacterIDs(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("failed to get viewed characters: %w", err)
	}
	if len(ids) == 0 {
		return ErrEmptyContent
	}

	viewed, err := e.content.GetCharacters(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get characters: %w", err)
	}

	var candidates []subject
	for _, c := range viewed {
		switch s.Kind {
		case KindTranslation:
			candidates = append(candidates, subject{character: c})
		case KindSentenceBlank:
			sentence, err := e.content.GetSentenceByCharacterID(ctx, c.ID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return fmt.Errorf("failed to get sentence: %w", err)
			}
			if !strings.Contains(sentence.Text, c.Glyph) {
				continue
			}
			candidates = append(candidates, subject{character: c, sentence: sentence})
		}
	}
	if len(candidates) == 0 {
		return ErrEmptyContent
	}

	n := s.Length
	if n > len(candidates) {
		n = len(candidates)
	}

	e.mu.Lock()
	e.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	e.mu.Unlock()

	eligible := make([]models.Character, len(candidates))
	for i, c := range candidates {
		eligible[i] = c.character
	}

	s.reset()
	s.state = StateInProgress
	s.pool = candidates[:n]
	s.eligible = eligible
	s.viewed = viewed
	s.startedAt = e.now()

	e.log.Debug("quiz started",
		zap.String("session_id", s.ID.String()),
		zap.Int64("user_id", s.UserID),
		zap.String("kind", string(s.Kind)),
		zap.Int("questions", n),
	)
	return nil
}

// CurrentQuestion returns the question at the current index
func (e *Engine) CurrentQuestion(s *Session) (*Question, error) {
	if s.state != StateInProgress {
		return nil, ErrNotInProgress
	}
	if s.current == nil {
		s.current = e.buildQuestion(s, s.pool[s.index])
	}

	q := *s.current
	q.Options = append([]string(nil), s.current.Options...)
	return &q, nil
}

// SubmitAnswer grades the choice for the current question. Each question
// accepts one answer.
func (e *Engine) SubmitAnswer(s *Session, choice int) (Answer, error) {
	q, err := e.CurrentQuestion(s)
	if err != nil {
		return Answer{}, err
	}
	if s.answered {
		return Answer{}, ErrAlreadyAnswered
	}
	if choice < 0 || choice >= len(q.Options) {
		return Answer{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidChoice, choice, len(q.Options))
	}

	s.answered = true
	answer := Answer{
		Correct:       choice == q.CorrectIndex,
		CorrectIndex:  q.CorrectIndex,
		CorrectOption: q.Options[q.CorrectIndex],
	}
	if answer.Correct {
		s.score++
	}
	return answer, nil
}

// Advance moves to the next question. After the last question the session
// is complete and the final result is returned; otherwise the result is nil.
// An unanswered question counts as wrong.
func (e *Engine) Advance(ctx context.Context, s *Session) (*Result, error) {
	if s.state != StateInProgress {
		return nil, ErrNotInProgress
	}

	s.index++
	s.current = nil
	s.answered = false

	if s.index < len(s.pool) {
		return nil, nil
	}

	s.state = StateComplete
	s.result = &Result{
		Score:      s.score,
		Total:      len(s.pool),
		Percentage: math.Round(float64(s.score)*100/float64(len(s.pool))*100) / 100,
	}

	e.log.Debug("quiz complete",
		zap.String("session_id", s.ID.String()),
		zap.Int("score", s.score),
		zap.Int("total", len(s.pool)),
	)

	if e.recorder != nil {
		record := &models.QuizResult{
			UserID:         s.UserID,
			Kind:           string(s.Kind),
			TotalQuestions: s.result.Total,
			CorrectAnswers: s.result.Score,
			StartedAt:      s.startedAt,
			FinishedAt:     e.now(),
		}
		if err := e.recorder.Create(ctx, record); err != nil {
			return s.result, fmt.Errorf("failed to save quiz result: %w", err)
		}
	}
	return s.result, nil
}

// Restart returns the session to the not started state
func (e *Engine) Restart(s *Session) {
	s.reset()
}

func optionValue(kind Kind, c models.Character) string {
	if kind == KindSentenceBlank {
		return c.Glyph
	}
	return c.EnglishTranslation
}

func (e *Engine) buildQuestion(s *Session, subj subject) *Question {
	q := &Question{
		Number:      s.index + 1,
		Total:       len(s.pool),
		CharacterID: subj.character.ID,
	}

	switch s.Kind {
	case KindSentenceBlank:
		q.Prompt = strings.Replace(subj.sentence.Text, subj.character.Glyph, Blank, 1)
		q.Hint = subj.sentence.EnglishTranslation
	default:
		q.Prompt = subj.character.Glyph
		q.Pinyin = subj.character.Pinyin
	}

	answer := optionValue(s.Kind, subj.character)

	e.mu.Lock()
	defer e.mu.Unlock()

	options := e.distractors(s.Kind, subj.character, answer, s.eligible, s.viewed)
	options = append(options, answer)
	correctIndex := len(options) - 1

	e.rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	q.Options = options
	q.CorrectIndex = correctIndex
	return q
}

// distractors draws up to three distinct wrong options, first from the
// characters eligible for this kind and then from the whole viewed set.
// Must be called with e.mu held.
func (e *Engine) distractors(kind Kind, target models.Character, answer string, pools ...[]models.Character) []string {
	options := make([]string, 0, distractorCount)
	seen := map[string]bool{answer: true}

	for _, pool := range pools {
		for _, i := range e.rnd.Perm(len(pool)) {
			if len(options) == distractorCount {
				return options
			}
			c := pool[i]
			if c.ID == target.ID {
				continue
			}
			v := optionValue(kind, c)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			options = append(options, v)
		}
	}
	return options
}
