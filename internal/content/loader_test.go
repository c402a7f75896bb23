package content

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/hanzi/internal/database"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestLibrary(t *testing.T) (*Library, *database.Store) {
	t.Helper()
	log := zaptest.NewLogger(t)
	store, err := database.Open(context.Background(), database.DriverSQLite,
		filepath.Join(t.TempDir(), "content.db"), database.WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewLibrary(store, log), store
}

func threeRows() []Row {
	return DefaultDataset()[:3]
}

func TestImportAssignsPositionalIDs(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	rows := threeRows()

	n, err := lib.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for i, row := range rows {
		c, err := lib.GetCharacter(ctx, int64(i+1))
		require.NoError(t, err)
		assert.Equal(t, row.Character, c.Glyph)
		assert.Equal(t, row.AppearancesInSentences, c.AppearanceFrequency)
		assert.Equal(t, len([]rune(row.RelatedSentence)), c.SentenceLength)

		s, err := lib.GetSentenceByCharacterID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, row.RelatedSentence, s.Text)
		assert.Equal(t, row.SentenceHebrewTranslation, s.HebrewTranslation)
	}

	all, err := lib.GetAllCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)

	sentences, err := lib.AllSentences(ctx)
	require.NoError(t, err)
	assert.Len(t, sentences, 3)
}

func TestImportRowWithoutSentence(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	n, err := lib.Import(ctx, []Row{{Character: "龙", Pinyin: "lóng", EnglishTranslation: "dragon"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, err := lib.GetCharacter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.SentenceLength)

	_, err = lib.GetSentenceByCharacterID(ctx, 1)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestImportCountsMisses(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	rows := threeRows()
	rows = append(rows,
		Row{Character: ""},
		Row{Character: "一二三四五六七"},
		Row{Character: "六字可以存入吗", AppearancesInSentences: -1},
	)

	n, err := lib.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = lib.GetCharacter(ctx, 4)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGlyphLengthCountsCodePoints(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	n, err := lib.Import(ctx, []Row{{Character: "一二三四五六"}, {Character: "一二三四五六七"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "six code points fit, seven do not")
}

func TestEnsureLoadedPartialImport(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	rows := append(threeRows(), Row{Character: ""})
	result, err := lib.EnsureLoaded(ctx, rows)
	assert.ErrorIs(t, err, ErrIncompleteImport)
	assert.Equal(t, ActionImported, result.Action)
	assert.Equal(t, 3, result.Committed)
	assert.Equal(t, 4, result.Expected)
}

func TestEnsureLoadedReplacesStaleDataset(t *testing.T) {
	lib, store := newTestLibrary(t)
	ctx := context.Background()

	result, err := lib.EnsureLoaded(ctx, threeRows())
	require.NoError(t, err)
	assert.Equal(t, ActionImported, result.Action)

	users := database.NewUserRepository(store)
	progress := database.NewUserProgressRepository(store)
	user, err := users.Create(ctx, "student", "1234")
	require.NoError(t, err)
	for _, id := range []int64{1, 2} {
		_, err := progress.RecordView(ctx, user.ID, id)
		require.NoError(t, err)
	}

	result, err = lib.EnsureLoaded(ctx, threeRows())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)

	viewed, err := progress.ViewedCharacters(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, viewed, 2, "a matching dataset keeps progress")

	four := DefaultDataset()[:4]
	result, err = lib.EnsureLoaded(ctx, four)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Action: ActionReimported, Expected: 4, Found: 3, Committed: 4}, result)

	n, err := lib.CountCharacters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	viewed, err = progress.ViewedCharacters(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, viewed)

	user, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, user.ViewedCount)
}

func TestReload(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	_, err := lib.EnsureLoaded(ctx, threeRows())
	require.NoError(t, err)

	result, err := lib.Reload(ctx, threeRows())
	require.NoError(t, err)
	assert.Equal(t, ActionReimported, result.Action)
	assert.Equal(t, 3, result.Committed)
}

func TestImportOnClosedStore(t *testing.T) {
	lib, store := newTestLibrary(t)
	require.NoError(t, store.Close())

	_, err := lib.Import(context.Background(), threeRows())
	assert.ErrorIs(t, err, database.ErrPrecondition)

	_, err = lib.EnsureLoaded(context.Background(), threeRows())
	assert.ErrorIs(t, err, database.ErrPrecondition)
}

func TestDefaultDataset(t *testing.T) {
	rows := DefaultDataset()
	require.NotEmpty(t, rows)

	v := validator.New()
	translations := map[string]bool{}
	glyphs := map[string]bool{}
	for _, row := range rows {
		require.NoError(t, v.Struct(row), row.Character)
		assert.True(t, strings.Contains(row.RelatedSentence, row.Character), "%s should appear in its sentence", row.Character)
		assert.False(t, translations[row.EnglishTranslation], "duplicate translation %q", row.EnglishTranslation)
		assert.False(t, glyphs[row.Character], "duplicate character %q", row.Character)
		translations[row.EnglishTranslation] = true
		glyphs[row.Character] = true
	}

	rows[0].Character = "changed"
	assert.NotEqual(t, "changed", DefaultDataset()[0].Character)
}

func TestRowsReproducesDataset(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	rows := DefaultDataset()[:6]
	for i := range rows {
		rows[i].Group = ""
	}
	rows[2].RelatedSentence = ""
	rows[2].SentencePinyin = ""
	rows[2].SentenceEnglishTranslation = ""
	rows[2].SentenceHebrewTranslation = ""

	_, err := lib.EnsureLoaded(ctx, rows)
	require.NoError(t, err)

	got, err := lib.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
