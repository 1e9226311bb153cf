package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/commands"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

type stubCommand struct {
	name string
}

func (s *stubCommand) Name() string { return s.name }

func (s *stubCommand) Aliases() []string { return nil }

func (s *stubCommand) Handle(update discord.Update) error { return nil }

func (s *stubCommand) Execute(update discord.Update) error { return nil }

func (s *stubCommand) GetQueueConfig() commands.QueueConfig { return commands.QueueConfig{} }

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewQueue(db, logger.NewTestLogger())
}

func TestAddPreservesRetryDelay(t *testing.T) {
	q := newTestQueue(t)
	cmd := &stubCommand{name: "fetch"}
	update := discord.Update{MessageID: "1", ChannelID: "2", Text: "https://example.com/a"}

	require.NoError(t, q.Add(cmd, update, 2, 30*time.Second))

	task, err := q.lockAndGetTask(context.Background(), "fetch")
	require.NoError(t, err)
	require.NotNil(t, task)

	// the stored integer must scan back as the same duration, not as
	// some smaller unit
	assert.Equal(t, 30*time.Second, task.RetryDelay)

	got, err := task.GetUpdate()
	require.NoError(t, err)
	assert.Equal(t, update.Text, got.Text)
}

func TestLockAndGetTaskClaimsOnce(t *testing.T) {
	q := newTestQueue(t)
	cmd := &stubCommand{name: "fetch"}

	require.NoError(t, q.Add(cmd, discord.Update{MessageID: "1"}, 0, time.Second))

	first, err := q.lockAndGetTask(context.Background(), "fetch")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.lockAndGetTask(context.Background(), "fetch")
	require.NoError(t, err)
	assert.Nil(t, second, "a running task must not be handed out twice")
}
