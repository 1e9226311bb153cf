package chat

import (
	"fmt"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
)

const StatusCommandName = "chatstatus"

type StatusCommand struct {
	*base.Command
}

func NewStatus(di *di.Container) *StatusCommand {
	cmd := &StatusCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *StatusCommand) Name() string {
	return StatusCommandName
}

func (c *StatusCommand) Aliases() []string {
	return []string{"cs"}
}

func (c *StatusCommand) Execute(update discord.Update) error {
	if !c.Capabilities.ChatEnabled {
		return c.Reply(update, "Chat is disabled on this instance.")
	}

	private, err := c.History.Count(c.ConversationKey(update, false))
	if err != nil {
		return c.ReplyError(update, err)
	}
	shared, err := c.History.Count(c.ConversationKey(update, true))
	if err != nil {
		return c.ReplyError(update, err)
	}

	return c.Reply(update, fmt.Sprintf(
		"Chat is enabled with model %s. Your thread holds %d turns, the shared thread %d.",
		c.Cfg.AI().Model, private, shared,
	))
}
