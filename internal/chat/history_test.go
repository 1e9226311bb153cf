package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/logger"
)

func newTestHistory(t *testing.T, limit int) *HistoryStore {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryStore(db, limit, logger.NewTestLogger())
}

func TestHistoryRoundTrip(t *testing.T) {
	store := newTestHistory(t, 10)
	key := ConversationKey{ServerID: 100, UserID: 7}

	require.NoError(t, store.Append(context.Background(), key, "how are you", "doing fine"))

	messages, err := store.ReadRecent(key)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	// assistant line precedes the user line within a pair
	assert.Equal(t, ai.RoleAssistant, messages[0].Role)
	assert.Equal(t, "doing fine", messages[0].Text)
	assert.Equal(t, ai.RoleUser, messages[1].Role)
	assert.Equal(t, "how are you", messages[1].Text)
}

func TestHistoryEmptyThread(t *testing.T) {
	store := newTestHistory(t, 10)

	messages, err := store.ReadRecent(ConversationKey{ServerID: 100, UserID: 7})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHistoryWindowKeepsNewest(t *testing.T) {
	store := newTestHistory(t, 10)
	key := ConversationKey{ServerID: 100, UserID: 7}
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Append(ctx, key, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	messages, err := store.ReadRecent(key)
	require.NoError(t, err)
	require.Len(t, messages, 20)
	// oldest surviving pair first
	assert.Equal(t, "a3", messages[0].Text)
	assert.Equal(t, "q3", messages[1].Text)
	// newest pair last
	assert.Equal(t, "a12", messages[18].Text)
	assert.Equal(t, "q12", messages[19].Text)
}

func TestHistoryClearIsIdempotent(t *testing.T) {
	store := newTestHistory(t, 10)
	key := ConversationKey{ServerID: 100, UserID: 7}
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, key, "q", "a"))

	removed, err := store.Clear(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	messages, err := store.ReadRecent(key)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// clearing an empty thread succeeds
	removed, err = store.Clear(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestHistorySharedAndPrivateNeverMerge(t *testing.T) {
	store := newTestHistory(t, 10)
	ctx := context.Background()
	private := ConversationKey{ServerID: 100, UserID: 7}
	shared := ConversationKey{ServerID: 100, UserID: 7, Shared: true}

	require.NoError(t, store.Append(ctx, private, "private q", "private a"))
	require.NoError(t, store.Append(ctx, shared, "shared q", "shared a"))

	messages, err := store.ReadRecent(private)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "private q", messages[1].Text)

	// another member sees the shared thread
	messages, err = store.ReadRecent(ConversationKey{ServerID: 100, UserID: 42, Shared: true})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "shared q", messages[1].Text)
}
