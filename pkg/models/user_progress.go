package models

import "time"

// UserProgress tracks a user's interaction with a single character
type UserProgress struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	CharacterID    int64     `json:"character_id" db:"character_id"`
	Viewed         bool      `json:"viewed" db:"viewed"`
	Completed      bool      `json:"completed" db:"completed"`
	LastAccessedAt time.Time `json:"last_accessed_at" db:"last_accessed_at"`
	TimesPracticed int       `json:"times_practiced" db:"times_practiced"`
}

// ViewedCharacter is one entry of a user's viewed set, most recent first
type ViewedCharacter struct {
	CharacterID    int64     `json:"character_id" db:"character_id"`
	LastAccessedAt time.Time `json:"last_accessed_at" db:"last_accessed_at"`
	TimesPracticed int       `json:"times_practiced" db:"times_practiced"`
}
