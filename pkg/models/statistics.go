package models

import "time"

// UserSummary is a row of the administrative user listing
type UserSummary struct {
	ID                   int64     `json:"id" db:"id"`
	Username             string    `json:"username" db:"username"`
	IsAdmin              bool      `json:"is_admin" db:"is_admin"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	LastLoginAt          time.Time `json:"last_login_at" db:"last_login_at"`
	ViewedCount          int       `json:"viewed_count" db:"viewed_count"`
	TotalCount           int       `json:"total_count" db:"total_count"`
	CompletionPercentage float64   `json:"completion_percentage" db:"-"`
}

// ProgressSummary aggregates a single user's progress
type ProgressSummary struct {
	TotalCharacters      int     `json:"total_characters" db:"total_characters"`
	ViewedCharacters     int     `json:"viewed_characters" db:"viewed_characters"`
	CompletedCharacters  int     `json:"completed_characters" db:"completed_characters"`
	TotalPractices       int     `json:"total_practices" db:"total_practices"`
	CompletionPercentage float64 `json:"completion_percentage" db:"-"`
}
