package database

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func actualViewedCount(t *testing.T, store *Store, userID int64) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, store.DB().Rebind(
		`SELECT COUNT(DISTINCT character_id) FROM user_progress WHERE user_id = ? AND viewed = ?`), userID, true))
	return n
}

func cachedViewedCount(t *testing.T, store *Store, userID int64) int {
	t.Helper()
	user, err := NewUserRepository(store).GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.ViewedCount
}

func progressRows(t *testing.T, store *Store, userID, characterID int64) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, store.DB().Rebind(
		`SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND character_id = ?`), userID, characterID))
	return n
}

func TestRecordViewOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 3)
	user := createUser(t, store, "alice")
	progress := NewUserProgressRepository(store)

	first, err := progress.RecordView(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = progress.RecordView(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = progress.RecordView(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.False(t, first)

	viewed, err := progress.ViewedCharacters(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, viewed, 2)
	assert.Equal(t, int64(1), viewed[0].CharacterID)
	assert.Equal(t, int64(2), viewed[1].CharacterID)
	assert.Equal(t, 2, viewed[0].TimesPracticed)
	assert.Equal(t, 1, viewed[1].TimesPracticed)
	assert.True(t, viewed[0].LastAccessedAt.After(viewed[1].LastAccessedAt))

	assert.Equal(t, 2, cachedViewedCount(t, store, user.ID))

	ids, err := progress.ViewedCharacterIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestViewedIsMonotonic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 2)
	user := createUser(t, store, "bob")
	progress := NewUserProgressRepository(store)

	_, err := progress.RecordView(ctx, user.ID, 1)
	require.NoError(t, err)

	require.NoError(t, progress.SetCompleted(ctx, user.ID, 1, true))
	require.NoError(t, progress.SetCompleted(ctx, user.ID, 1, false))

	row, err := progress.GetProgress(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.True(t, row.Viewed)
	assert.False(t, row.Completed)
	assert.Equal(t, 3, row.TimesPracticed)
	assert.Equal(t, 1, cachedViewedCount(t, store, user.ID))
}

func TestSetCompletedDoesNotMarkViewed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 2)
	user := createUser(t, store, "carol")
	progress := NewUserProgressRepository(store)

	require.NoError(t, progress.SetCompleted(ctx, user.ID, 2, true))

	row, err := progress.GetProgress(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.False(t, row.Viewed)
	assert.True(t, row.Completed)
	assert.Equal(t, 0, cachedViewedCount(t, store, user.ID))

	completed, err := progress.CompletedCharacters(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, completed)

	first, err := progress.RecordView(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.True(t, first, "completing does not count as viewing")
}

func TestOneRowPerUserAndCharacter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 1)
	user := createUser(t, store, "dave")
	progress := NewUserProgressRepository(store)

	for i := 0; i < 3; i++ {
		_, err := progress.RecordView(ctx, user.ID, 1)
		require.NoError(t, err)
		require.NoError(t, progress.SetCompleted(ctx, user.ID, 1, i%2 == 0))
	}

	assert.Equal(t, 1, progressRows(t, store, user.ID, 1))
}

func TestViewedCountMatchesProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 8)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	progress := NewUserProgressRepository(store)

	rnd := rand.New(rand.NewSource(7))
	users := []int64{alice.ID, bob.ID}
	for i := 0; i < 60; i++ {
		userID := users[rnd.Intn(len(users))]
		characterID := int64(rnd.Intn(8) + 1)

		switch rnd.Intn(10) {
		case 0:
			require.NoError(t, progress.ResetProgress(ctx, userID))
		case 1, 2, 3:
			require.NoError(t, progress.SetCompleted(ctx, userID, characterID, rnd.Intn(2) == 0))
		default:
			_, err := progress.RecordView(ctx, userID, characterID)
			require.NoError(t, err)
		}

		for _, id := range users {
			require.Equal(t, actualViewedCount(t, store, id), cachedViewedCount(t, store, id), "step %d", i)
		}
	}

	repaired, err := progress.VerifyViewedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestResetProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 3)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	progress := NewUserProgressRepository(store)

	for _, id := range []int64{1, 2, 3} {
		_, err := progress.RecordView(ctx, alice.ID, id)
		require.NoError(t, err)
	}
	_, err := progress.RecordView(ctx, bob.ID, 1)
	require.NoError(t, err)

	require.NoError(t, progress.ResetProgress(ctx, alice.ID))

	viewed, err := progress.ViewedCharacters(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, viewed)
	assert.Equal(t, 0, cachedViewedCount(t, store, alice.ID))
	assert.Equal(t, 1, cachedViewedCount(t, store, bob.ID), "other users are untouched")

	assert.ErrorIs(t, progress.ResetProgress(ctx, 999), ErrNotFound)
}

func TestProgressUnknownIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 1)
	user := createUser(t, store, "erin")
	progress := NewUserProgressRepository(store)

	_, err := progress.RecordView(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = progress.RecordView(ctx, user.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, progress.SetCompleted(ctx, user.ID, 999, true), ErrNotFound)

	_, err = progress.GetProgress(ctx, user.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = progress.RefreshViewedCount(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = progress.ViewedCharacters(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = progress.ViewedCharacterIDs(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = progress.CompletedCharacters(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	viewed, err := progress.ViewedCharacters(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, viewed)

	assert.Equal(t, 0, progressRows(t, store, user.ID, 999))
}

func TestRefreshViewedCountRepairsDrift(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := newTestStore(t, WithLogger(zap.New(core)))
	ctx := context.Background()
	seedCharacters(t, store, 2)
	user := createUser(t, store, "frank")
	progress := NewUserProgressRepository(store)

	_, err := progress.RecordView(ctx, user.ID, 1)
	require.NoError(t, err)

	_, err = store.DB().Exec(store.DB().Rebind(`UPDATE users SET viewed_count = 42 WHERE id = ?`), user.ID)
	require.NoError(t, err)

	n, err := progress.RefreshViewedCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, cachedViewedCount(t, store, user.ID))

	entries := logs.FilterMessage("repaired viewed count").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ErrConsistency.Error(), entries[0].ContextMap()["error"])

	n, err = progress.RefreshViewedCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, logs.FilterMessage("repaired viewed count").All(), 1, "no drift, no warning")
}

func TestVerifyViewedCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 2)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	createUser(t, store, "carol")
	progress := NewUserProgressRepository(store)

	_, err := progress.RecordView(ctx, alice.ID, 1)
	require.NoError(t, err)

	_, err = store.DB().Exec(`UPDATE users SET viewed_count = 5`)
	require.NoError(t, err)
	_, err = store.DB().Exec(store.DB().Rebind(`UPDATE users SET viewed_count = 0 WHERE id = ?`), alice.ID)
	require.NoError(t, err)

	repaired, err := progress.VerifyViewedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, repaired)

	assert.Equal(t, 1, cachedViewedCount(t, store, alice.ID))
	assert.Equal(t, 0, cachedViewedCount(t, store, bob.ID))

	repaired, err = progress.VerifyViewedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestDeleteUserCascadesProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCharacters(t, store, 1)
	user := createUser(t, store, "gina")
	progress := NewUserProgressRepository(store)

	_, err := progress.RecordView(ctx, user.ID, 1)
	require.NoError(t, err)

	require.NoError(t, NewUserRepository(store).Delete(ctx, user.ID))
	assert.Equal(t, 0, progressRows(t, store, user.ID, 1))
}
