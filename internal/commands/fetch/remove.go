package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
)

const RemoveCommandName = "remove"

type RemoveCommand struct {
	*base.Command
}

func NewRemove(di *di.Container) *RemoveCommand {
	cmd := &RemoveCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *RemoveCommand) Name() string {
	return RemoveCommandName
}

func (c *RemoveCommand) Aliases() []string {
	return []string{"dequantize"}
}

func (c *RemoveCommand) Execute(update discord.Update) error {
	if !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can remove stored files.")
	}

	args := strings.Fields(update.Text)
	if len(args) != 1 {
		return c.Reply(update, "Usage: remove <name>")
	}

	name := filepath.Base(args[0])
	if err := os.Remove(filepath.Join(c.Cfg.Global().StorageDir, name)); err != nil {
		c.Logger.WithError(err).Error("Remove failed")
		return c.Reply(update, fmt.Sprintf("Couldn't remove %s.", name))
	}
	return c.Reply(update, fmt.Sprintf("Removed %s.", name))
}
