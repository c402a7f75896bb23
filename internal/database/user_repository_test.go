package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	store := newTestStore(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	user, err := users.Create(ctx, "li_wei", "0420")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, 0, user.ViewedCount)

	got, err := users.GetByUsername(ctx, "li_wei")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "0420", got.PinCode)
	assert.True(t, got.CreatedAt.Equal(user.CreatedAt))

	_, err = users.Create(ctx, "li_wei", "1111")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserValidation(t *testing.T) {
	store := newTestStore(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		pin      string
	}{
		{"short username", "ab", "1234"},
		{"long username", "abcdefghijklmnopqrstu", "1234"},
		{"space in username", "li wei", "1234"},
		{"letters in pin", "liwei", "12a4"},
		{"signed pin", "liwei", "-123"},
		{"long pin", "liwei", "12345"},
		{"empty pin", "liwei", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Create(ctx, tt.username, tt.pin)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	all, err := users.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	created, err := users.Create(ctx, "mei", "2468")
	require.NoError(t, err)

	_, err = users.Authenticate(ctx, "mei", "1357")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody", "2468")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := users.Authenticate(ctx, "mei", "2468")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.LastLoginAt.After(created.LastLoginAt))
}

func TestPromoteToAdmin(t *testing.T) {
	store := newTestStore(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	createUser(t, store, "admin_user")
	require.NoError(t, users.PromoteToAdmin(ctx, "admin_user"))

	user, err := users.GetByUsername(ctx, "admin_user")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	assert.ErrorIs(t, users.PromoteToAdmin(ctx, "ghost"), ErrNotFound)
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)
	users := NewUserRepository(store)
	ctx := context.Background()

	_, err := users.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, users.Delete(ctx, 42), ErrNotFound)
}
