package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

const testOwnerID int64 = 42

type fakeClient struct {
	replies []string
}

func (f *fakeClient) Start() error { return nil }

func (f *fakeClient) Stop() error { return nil }

func (f *fakeClient) Reply(channelID, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeClient) Typing(channelID string) error { return nil }

func (f *fakeClient) OnMessage(handler func(discord.Update)) {}

func (f *fakeClient) OnServerJoin(handler func(discord.Server)) {}

func (f *fakeClient) Self() discord.User { return discord.User{} }

func newTestFetch(t *testing.T, maxSize int64) (*Command, *fakeClient, string) {
	t.Helper()
	dir := t.TempDir()
	client := &fakeClient{}
	container := &di.Container{
		BotClient: client,
		Logger:    logger.NewTestLogger(),
		Cfg: config.NewFromMap(map[string]any{
			"discord.owner_id":     testOwnerID,
			"global.storage_dir":   dir,
			"attachments.max_size": maxSize,
		}),
		HttpClient: http.DefaultClient,
	}
	return New(container), client, dir
}

func ownerUpdate(text string) discord.Update {
	return discord.Update{
		ServerID: 100,
		Author:   discord.User{ID: testOwnerID},
		Text:     text,
	}
}

func TestFetchRejectsNonOwner(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	cmd, client, dir := newTestFetch(t, 1024)
	update := ownerUpdate(server.URL + "/file.bin")
	update.Author.ID = 7

	require.NoError(t, cmd.Execute(update))

	require.Len(t, client.replies, 1)
	assert.Contains(t, client.replies[0], "owner")
	assert.Zero(t, requests, "non-owner must not trigger a download")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchDownloadsToStorageDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	cmd, client, dir := newTestFetch(t, 1024)

	require.NoError(t, cmd.Execute(ownerUpdate(server.URL+"/file.bin")))

	data, err := os.ReadFile(filepath.Join(dir, "file.bin"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.Len(t, client.replies, 1)
	assert.Contains(t, client.replies[0], "file.bin")
}

func TestFetchEnforcesSizeCeiling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 200)))
	}))
	defer server.Close()

	cmd, client, dir := newTestFetch(t, 64)

	err := cmd.Execute(ownerUpdate(server.URL + "/big.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")

	_, statErr := os.Stat(filepath.Join(dir, "big.bin"))
	assert.True(t, os.IsNotExist(statErr), "oversized download must not be kept")

	require.Len(t, client.replies, 1)
	assert.Contains(t, client.replies[0], "Couldn't fetch")
}
