package chat

import (
	"context"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

const (
	CommandName       = "chat"
	SharedCommandName = "sharedchat"
)

// Command relays a message through the completion pipeline, against
// either the author's private thread or the server-wide shared one.
type Command struct {
	*base.Command
	shared bool
}

func New(di *di.Container) *Command {
	cmd := &Command{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func NewShared(di *di.Container) *Command {
	cmd := &Command{shared: true}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	if c.shared {
		return SharedCommandName
	}
	return CommandName
}

func (c *Command) Aliases() []string {
	if c.shared {
		return []string{"schat", "sc"}
	}
	return []string{"talk", "c"}
}

func (c *Command) Execute(update discord.Update) error {
	if !c.Capabilities.ChatEnabled {
		return c.Reply(update, "Chat is disabled on this instance.")
	}

	if err := c.Client.Typing(update.ChannelID); err != nil {
		c.Logger.WithError(err).Debug("Typing signal failed")
	}

	// uploaded images arrive as attachments rather than inline links,
	// fold their URLs into the text so the resolver sees them
	text := update.Text
	for _, a := range update.Attachments {
		text += " " + a.URL
	}

	key := c.ConversationKey(update, c.shared)
	chunks, err := c.Orchestrator.Respond(context.Background(), key, text)
	if err != nil {
		c.Logger.WithError(err).WithFields(logger.Fields{
			"user_id":   update.Author.ID,
			"server_id": update.ServerID,
			"shared":    c.shared,
			"message":   truncate(update.Text, 120),
		}).Warn("Chat turn failed")
		return c.ReplyError(update, err)
	}

	for _, chunk := range chunks {
		if err := c.Client.Reply(update.ChannelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
