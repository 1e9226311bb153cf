package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

const CommandName = "fetch"

// Command downloads a URL into the storage directory. Invocations go
// through the job queue, so slow downloads don't block dispatch and
// failures are retried.
type Command struct {
	*base.Command
}

func New(di *di.Container) *Command {
	cmd := &Command{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"quantize"}
}

func (c *Command) Execute(update discord.Update) error {
	if !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can fetch files.")
	}

	args := strings.Fields(update.Text)
	if len(args) == 0 {
		return c.Reply(update, "Usage: fetch <url> [rand]")
	}

	rawURL := strings.Trim(args[0], "<>")
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return c.Reply(update, "That doesn't look like a URL.")
	}

	name := filepath.Base(path.Clean(parsed.Path))
	if name == "." || name == "/" || name == "" {
		name = uuid.NewString()
	}
	if len(args) > 1 && strings.EqualFold(args[1], "rand") {
		name = uuid.NewString() + filepath.Ext(name)
	}

	dir := c.Cfg.Global().StorageDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.Logger.WithError(err).Error("Failed to create storage directory")
		return c.Reply(update, "Storage error, try again later.")
	}

	size, err := c.download(context.Background(), rawURL, filepath.Join(dir, name), c.Cfg.Attachments().MaxSize)
	if err != nil {
		c.Logger.WithError(err).WithFields(logger.Fields{
			"url":  rawURL,
			"name": name,
		}).Error("Fetch failed")
		c.Reply(update, fmt.Sprintf("Couldn't fetch %s.", rawURL))
		return err
	}

	c.Logger.WithFields(logger.Fields{
		"url":  rawURL,
		"name": name,
		"size": size,
	}).Info("Fetch completed")

	return c.Reply(update, fmt.Sprintf("Saved as %s (%d bytes).", name, size))
}

func (c *Command) download(ctx context.Context, rawURL, dest string, maxSize int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	size, err := io.Copy(file, io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		os.Remove(dest)
		return 0, err
	}
	if size > maxSize {
		os.Remove(dest)
		return 0, fmt.Errorf("body exceeds %d bytes", maxSize)
	}
	return size, nil
}
