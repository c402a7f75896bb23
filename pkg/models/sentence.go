package models

import "time"

// Sentence is an example sentence attached to a character
type Sentence struct {
	ID                 int64     `json:"id" db:"id"`
	CharacterID        int64     `json:"character_id" db:"character_id"`
	Text               string    `json:"sentence" db:"sentence"`
	Pinyin             string    `json:"sentence_pinyin" db:"sentence_pinyin"`
	EnglishTranslation string    `json:"sentence_english_translation" db:"sentence_english_translation"`
	HebrewTranslation  string    `json:"sentence_hebrew_translation" db:"sentence_hebrew_translation"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
