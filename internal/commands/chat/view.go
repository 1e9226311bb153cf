package chat

import (
	"fmt"
	"strings"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
)

const (
	ViewCommandName       = "chatview"
	SharedViewCommandName = "sharedchatview"
)

type ViewCommand struct {
	*base.Command
	shared bool
}

func NewView(di *di.Container) *ViewCommand {
	cmd := &ViewCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func NewSharedView(di *di.Container) *ViewCommand {
	cmd := &ViewCommand{shared: true}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *ViewCommand) Name() string {
	if c.shared {
		return SharedViewCommandName
	}
	return ViewCommandName
}

func (c *ViewCommand) Aliases() []string {
	if c.shared {
		return []string{"scv"}
	}
	return []string{"cv"}
}

func (c *ViewCommand) Execute(update discord.Update) error {
	key := c.ConversationKey(update, c.shared)
	turns, err := c.History.Turns(key)
	if err != nil {
		c.Logger.WithError(err).Error("Failed to load chat history")
		return c.ReplyError(update, err)
	}

	if len(turns) == 0 {
		return c.Reply(update, "The conversation is empty.")
	}

	var sb strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&sb, "**you**: %s\n**bot**: %s\n\n",
			truncate(turn.UserMessage, 300),
			truncate(turn.AssistantMessage, 300),
		)
	}
	return c.Reply(update, strings.TrimRight(sb.String(), "\n"))
}
