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

const RenameCommandName = "rename"

type RenameCommand struct {
	*base.Command
}

func NewRename(di *di.Container) *RenameCommand {
	cmd := &RenameCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *RenameCommand) Name() string {
	return RenameCommandName
}

func (c *RenameCommand) Aliases() []string {
	return []string{"requantize"}
}

func (c *RenameCommand) Execute(update discord.Update) error {
	if !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can rename stored files.")
	}

	args := strings.Fields(update.Text)
	if len(args) != 2 {
		return c.Reply(update, "Usage: rename <old> <new>")
	}

	dir := c.Cfg.Global().StorageDir
	// names are flattened so arguments can't escape the storage dir
	oldPath := filepath.Join(dir, filepath.Base(args[0]))
	newPath := filepath.Join(dir, filepath.Base(args[1]))

	if err := os.Rename(oldPath, newPath); err != nil {
		c.Logger.WithError(err).Error("Rename failed")
		return c.Reply(update, fmt.Sprintf("Couldn't rename %s.", filepath.Base(args[0])))
	}
	return c.Reply(update, fmt.Sprintf("Renamed %s to %s.", filepath.Base(args[0]), filepath.Base(args[1])))
}
