package user

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.Create(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "hunter22", u.PasswordHash, "password must never be stored in the clear")

	_, err = store.Create(ctx, "alice@example.com", "different")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "bob@example.com", "correct-horse")
	require.NoError(t, err)

	u, err := store.Authenticate(ctx, "bob@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)

	_, err = store.Authenticate(ctx, "bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = store.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrBadCredentials, "unknown email must look like a bad password")
}

func TestSetChatIDAndSubscribers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice, err := store.Create(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	_, err = store.Create(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	subs, err := store.Subscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	chatID := "chat-1001"
	require.NoError(t, store.SetChatID(ctx, alice.ID, &chatID))

	subs, err = store.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice@example.com", subs[0].Email)
	require.NotNil(t, subs[0].ChatID)
	assert.Equal(t, "chat-1001", *subs[0].ChatID)

	// Unlinking removes the subscription
	require.NoError(t, store.SetChatID(ctx, alice.ID, nil))
	subs, err = store.Subscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.ErrorIs(t, store.SetChatID(ctx, 9999, &chatID), ErrNotFound)
}

func TestSetPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.Create(ctx, "carol@example.com", "old-pw")
	require.NoError(t, err)

	require.NoError(t, store.SetPassword(ctx, u.ID, "new-pw"))

	_, err = store.Authenticate(ctx, "carol@example.com", "old-pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = store.Authenticate(ctx, "carol@example.com", "new-pw")
	assert.NoError(t, err)
}

func TestResetTokenFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "dave@example.com", "old-pw")
	require.NoError(t, err)

	token, err := store.CreateResetToken(ctx, "dave@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, store.ConsumeResetToken(ctx, token, "new-pw"))

	_, err = store.Authenticate(ctx, "dave@example.com", "new-pw")
	assert.NoError(t, err)

	// Tokens are single-use
	assert.ErrorIs(t, store.ConsumeResetToken(ctx, token, "again"), ErrTokenInvalid)
}

func TestResetToken_Expired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.Create(ctx, "erin@example.com", "old-pw")
	require.NoError(t, err)

	// Plant a token that ran out an hour ago.
	_, err = store.db.ExecContext(ctx,
		"INSERT INTO reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)",
		"stale-token", u.ID, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	assert.ErrorIs(t, store.ConsumeResetToken(ctx, "stale-token", "new-pw"), ErrTokenInvalid)

	// The password stays untouched and the token is spent.
	_, err = store.Authenticate(ctx, "erin@example.com", "old-pw")
	assert.NoError(t, err)
	assert.ErrorIs(t, store.ConsumeResetToken(ctx, "stale-token", "new-pw"), ErrTokenInvalid)
}

func TestResetToken_UnknownEmailAndToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateResetToken(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.ConsumeResetToken(ctx, "no-such-token", "pw"), ErrTokenInvalid)
}
