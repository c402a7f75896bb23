package models

import "time"

// QuizResult records a finished quiz session
type QuizResult struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	Kind           string    `json:"kind" db:"kind"` // "translation" or "sentence_blank"
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	FinishedAt     time.Time `json:"finished_at" db:"finished_at"`
}

// QuizStats aggregates the quiz results of a user over a period
type QuizStats struct {
	TotalQuizzes   int     `json:"total_quizzes" db:"total_quizzes"`
	TotalQuestions int     `json:"total_questions" db:"total_questions"`
	TotalCorrect   int     `json:"total_correct" db:"total_correct"`
	AverageScore   float64 `json:"average_score" db:"-"` // percent of correct answers
}
