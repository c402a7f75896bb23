package content

import (
	"unicode/utf8"

	"github.com/example/hanzi/pkg/models"
)

// Row is one entry of a content dataset: a character and its example
// sentence. Its position in the dataset determines the character id.
type Row struct {
	Character                  string `json:"character" validate:"required,max=6"`
	Pinyin                     string `json:"pinyin"`
	EnglishTranslation         string `json:"englishTranslation"`
	HebrewTranslation          string `json:"hebrewTranslation"`
	RelatedSentence            string `json:"relatedSentence"`
	SentencePinyin             string `json:"sentencePinyin"`
	SentenceEnglishTranslation string `json:"sentenceEnglishTranslation"`
	SentenceHebrewTranslation  string `json:"sentenceHebrewTranslation"`
	AppearancesInSentences     int    `json:"appearancesInSentences" validate:"gte=0"`
	Group                      string `json:"group,omitempty"`
}

// toModels converts the row at the given 0-based dataset position. The
// sentence is nil when the row has no related sentence.
func (r Row) toModels(position int) (*models.Character, *models.Sentence) {
	c := &models.Character{
		ID:                  int64(position + 1),
		Glyph:               r.Character,
		Pinyin:              r.Pinyin,
		EnglishTranslation:  r.EnglishTranslation,
		HebrewTranslation:   r.HebrewTranslation,
		SentenceLength:      utf8.RuneCountInString(r.RelatedSentence),
		AppearanceFrequency: r.AppearancesInSentences,
	}
	if r.RelatedSentence == "" {
		return c, nil
	}

	return c, &models.Sentence{
		Text:               r.RelatedSentence,
		Pinyin:             r.SentencePinyin,
		EnglishTranslation: r.SentenceEnglishTranslation,
		HebrewTranslation:  r.SentenceHebrewTranslation,
	}
}
