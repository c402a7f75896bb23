package models

import "time"

// User represents a learner account. ViewedCount is a cache of the number of
// distinct characters with viewed = true in user_progress.
type User struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	PinCode     string    `json:"-" db:"pin_code"`
	IsAdmin     bool      `json:"is_admin" db:"is_admin"`
	ViewedCount int       `json:"viewed_count" db:"viewed_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}
