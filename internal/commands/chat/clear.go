package chat

import (
	"context"
	"fmt"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
)

const (
	ClearCommandName       = "chatclear"
	SharedClearCommandName = "sharedchatclear"
)

type ClearCommand struct {
	*base.Command
	shared bool
}

func NewClear(di *di.Container) *ClearCommand {
	cmd := &ClearCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func NewSharedClear(di *di.Container) *ClearCommand {
	cmd := &ClearCommand{shared: true}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *ClearCommand) Name() string {
	if c.shared {
		return SharedClearCommandName
	}
	return ClearCommandName
}

func (c *ClearCommand) Aliases() []string {
	if c.shared {
		return []string{"scc"}
	}
	return []string{"cc"}
}

func (c *ClearCommand) Execute(update discord.Update) error {
	// the shared thread belongs to everyone, wiping it is owner-only
	if c.shared && !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can clear the shared conversation.")
	}

	key := c.ConversationKey(update, c.shared)
	removed, err := c.History.Clear(context.Background(), key)
	if err != nil {
		c.Logger.WithError(err).Error("Failed to clear chat history")
		return c.ReplyError(update, err)
	}

	if removed == 0 {
		return c.Reply(update, "Nothing to clear, the conversation is already empty.")
	}
	return c.Reply(update, fmt.Sprintf("Cleared %d turns.", removed))
}
