package models

import "time"

// Character represents one vocabulary entry (one or more CJK glyphs)
type Character struct {
	ID                  int64     `json:"id" db:"id"`
	Glyph               string    `json:"character" db:"glyph"`
	Pinyin              string    `json:"pinyin" db:"pinyin"`
	EnglishTranslation  string    `json:"english_translation" db:"english_translation"`
	HebrewTranslation   string    `json:"hebrew_translation" db:"hebrew_translation"`
	SentenceLength      int       `json:"sentence_length" db:"sentence_length"`
	AppearanceFrequency int       `json:"appearance_frequency" db:"appearance_frequency"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
