package content

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/example/hanzi/internal/database"
	"github.com/example/hanzi/internal/logger"
	"github.com/example/hanzi/pkg/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrIncompleteImport is returned when fewer rows were committed than the
// dataset holds. The content tables must then be reloaded.
var ErrIncompleteImport = errors.New("incomplete content import")

// Library is the read-mostly content store: it bulk loads datasets and
// answers character and sentence queries.
type Library struct {
	characters *database.CharacterRepository
	sentences  *database.SentenceRepository
	validate   *validator.Validate
	log        *zap.Logger
}

// NewLibrary creates a Library on top of an open store
func NewLibrary(store *database.Store, log *zap.Logger) *Library {
	return &Library{
		characters: database.NewCharacterRepository(store),
		sentences:  database.NewSentenceRepository(store),
		validate:   validator.New(),
		log:        logger.OrNop(log).Named("content"),
	}
}

// GetAllCharacters returns every character, most frequent first
func (l *Library) GetAllCharacters(ctx context.Context) ([]models.Character, error) {
	return l.characters.GetAll(ctx)
}

// GetCharacter returns a character by id
func (l *Library) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	return l.characters.GetByID(ctx, id)
}

// GetCharacters returns the characters with the given ids, in order
func (l *Library) GetCharacters(ctx context.Context, ids []int64) ([]models.Character, error) {
	return l.characters.GetByIDs(ctx, ids)
}

// GetSentenceByCharacterID returns the example sentence of a character
func (l *Library) GetSentenceByCharacterID(ctx context.Context, characterID int64) (*models.Sentence, error) {
	return l.sentences.GetByCharacterID(ctx, characterID)
}

// AllSentences returns every stored sentence
func (l *Library) AllSentences(ctx context.Context) ([]models.Sentence, error) {
	return l.sentences.GetAll(ctx)
}

// CountCharacters returns the number of stored characters
func (l *Library) CountCharacters(ctx context.Context) (int, error) {
	n, err := l.characters.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return n, nil
}

// Rows returns the stored content as dataset rows in id order, so that
// importing them again reproduces the same ids.
func (l *Library) Rows(ctx context.Context) ([]Row, error) {
	characters, err := l.characters.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sentences, err := l.sentences.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byCharacter := make(map[int64]models.Sentence, len(sentences))
	for _, s := range sentences {
		if _, ok := byCharacter[s.CharacterID]; !ok {
			byCharacter[s.CharacterID] = s
		}
	}

	sort.Slice(characters, func(i, j int) bool { return characters[i].ID < characters[j].ID })

	rows := make([]Row, 0, len(characters))
	for _, c := range characters {
		row := Row{
			Character:              c.Glyph,
			Pinyin:                 c.Pinyin,
			EnglishTranslation:     c.EnglishTranslation,
			HebrewTranslation:      c.HebrewTranslation,
			AppearancesInSentences: c.AppearanceFrequency,
		}
		if s, ok := byCharacter[c.ID]; ok {
			row.RelatedSentence = s.Text
			row.SentencePinyin = s.Pinyin
			row.SentenceEnglishTranslation = s.EnglishTranslation
			row.SentenceHebrewTranslation = s.HebrewTranslation
		}
		rows = append(rows, row)
	}
	return rows, nil
}
