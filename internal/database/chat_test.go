package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/logger"
)

func newTestDB(t *testing.T) Database {
	t.Helper()
	db, err := NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChatTurnsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.AppendChatTurn(ctx, ChatTurn{
		ServerID:         100,
		UserID:           7,
		UserMessage:      "hello",
		AssistantMessage: "hi there",
	})
	require.NoError(t, err)

	turns, err := db.RecentChatTurns(100, 7, false, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].UserMessage)
	assert.Equal(t, "hi there", turns[0].AssistantMessage)
	assert.False(t, turns[0].Shared)
}

func TestRecentChatTurnsChronologicalWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		err := db.AppendChatTurn(ctx, ChatTurn{
			ServerID:         100,
			UserID:           7,
			UserMessage:      fmt.Sprintf("q%d", i),
			AssistantMessage: fmt.Sprintf("a%d", i),
		})
		require.NoError(t, err)
	}

	turns, err := db.RecentChatTurns(100, 7, false, 10)
	require.NoError(t, err)
	require.Len(t, turns, 10)
	// oldest of the kept window first, newest last
	assert.Equal(t, "q6", turns[0].UserMessage)
	assert.Equal(t, "q15", turns[9].UserMessage)
}

func TestChatTurnsIsolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 7, UserMessage: "mine", AssistantMessage: "a"}))
	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 8, UserMessage: "theirs", AssistantMessage: "b"}))
	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 200, UserID: 7, UserMessage: "elsewhere", AssistantMessage: "c"}))
	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 7, Shared: true, UserMessage: "shared", AssistantMessage: "d"}))

	personal, err := db.RecentChatTurns(100, 7, false, 10)
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.Equal(t, "mine", personal[0].UserMessage)

	// shared thread ignores user id
	shared, err := db.RecentChatTurns(100, 999, true, 10)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "shared", shared[0].UserMessage)
}

func TestClearChatTurns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 7, UserMessage: "q1", AssistantMessage: "a1"}))
	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 7, UserMessage: "q2", AssistantMessage: "a2"}))
	require.NoError(t, db.AppendChatTurn(ctx, ChatTurn{ServerID: 100, UserID: 7, Shared: true, UserMessage: "s1", AssistantMessage: "a3"}))

	removed, err := db.ClearChatTurns(ctx, 100, 7, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	count, err := db.CountChatTurns(100, 7, false)
	require.NoError(t, err)
	assert.Zero(t, count)

	// shared thread untouched
	count, err = db.CountChatTurns(100, 7, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServerUpsertKeepsFlags(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveServer(Server{ID: 100, Name: "guild"}))
	require.NoError(t, db.SetServerAuthenticated(100, true))

	// re-save on guild rename must not reset authentication
	require.NoError(t, db.SaveServer(Server{ID: 100, Name: "renamed"}))

	server, err := db.GetServer(100)
	require.NoError(t, err)
	assert.Equal(t, "renamed", server.Name)
	assert.True(t, server.Authenticated)
	assert.False(t, server.Banned)
}

func TestUserBan(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveUser(User{ID: 7, Username: "someone"}))
	require.NoError(t, db.SetUserBanned(7, true))

	user, err := db.GetUser(7)
	require.NoError(t, err)
	assert.True(t, user.Banned)
}
