package database

import (
	"context"
	"testing"

	"github.com/example/hanzi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	characters := NewCharacterRepository(store)
	seeded := seedCharacters(t, store, 3)

	extra := &models.Character{ID: 4, Glyph: "人", Pinyin: "rén", EnglishTranslation: "person", AppearanceFrequency: 3}
	require.NoError(t, characters.CreateWithSentence(ctx, extra, nil))

	all, err := characters.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int64{1, 4, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID, all[3].ID},
		"frequency descending, ties by id")

	got, err := characters.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, seeded[1].Glyph, got.Glyph)
	assert.Equal(t, seeded[1].HebrewTranslation, got.HebrewTranslation)

	_, err = characters.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	byIDs, err := characters.GetByIDs(ctx, []int64{3, 99, 1})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, int64(3), byIDs[0].ID)
	assert.Equal(t, int64(1), byIDs[1].ID)

	n, err := characters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCreateWithSentence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	characters := NewCharacterRepository(store)
	sentences := NewSentenceRepository(store)

	c := &models.Character{ID: 7, Glyph: "学习", Pinyin: "xuéxí", EnglishTranslation: "study", SentenceLength: 5}
	s := &models.Sentence{Text: "我喜欢学习", Pinyin: "wǒ xǐhuan xuéxí", EnglishTranslation: "I like studying"}
	require.NoError(t, characters.CreateWithSentence(ctx, c, s))
	assert.Equal(t, int64(7), s.CharacterID)
	assert.NotZero(t, s.ID)

	got, err := sentences.GetByCharacterID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "我喜欢学习", got.Text)
	assert.Equal(t, "I like studying", got.EnglishTranslation)

	dup := &models.Character{ID: 7, Glyph: "再"}
	err = characters.CreateWithSentence(ctx, dup, &models.Sentence{Text: "再见"})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := sentences.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "failed insert leaves no sentence behind")

	_, err = sentences.GetByCharacterID(ctx, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	characters := NewCharacterRepository(store)
	seedCharacters(t, store, 3)
	user := createUser(t, store, "hana")
	progress := NewUserProgressRepository(store)

	for _, id := range []int64{1, 2} {
		_, err := progress.RecordView(ctx, user.ID, id)
		require.NoError(t, err)
	}

	require.NoError(t, characters.ClearAll(ctx))

	n, err := characters.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	sentences, err := NewSentenceRepository(store).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, sentences)

	viewed, err := progress.ViewedCharacters(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, viewed)
	assert.Equal(t, 0, cachedViewedCount(t, store, user.ID))

	_, err = NewUserRepository(store).GetByID(ctx, user.ID)
	assert.NoError(t, err, "users survive a content reset")
}
