package auth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

const BanCommandName = "ban"

// BanCommand flips the ban flag on a user or a server. Banned callers
// are dropped silently by the dispatch gates.
type BanCommand struct {
	*base.Command
}

func NewBan(di *di.Container) *BanCommand {
	cmd := &BanCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *BanCommand) Name() string {
	return BanCommandName
}

func (c *BanCommand) Aliases() []string {
	return []string{"unban"}
}

func (c *BanCommand) Execute(update discord.Update) error {
	if !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can manage bans.")
	}

	args := strings.Fields(update.Text)
	if len(args) < 2 {
		return c.Reply(update, "Usage: ban user|server <id> [lift]")
	}

	id, err := strconv.ParseInt(strings.Trim(args[1], "<@!>"), 10, 64)
	if err != nil {
		return c.Reply(update, "That doesn't look like an ID.")
	}
	banned := !(len(args) > 2 && strings.EqualFold(args[2], "lift"))

	switch strings.ToLower(args[0]) {
	case "user":
		err = c.DB.SetUserBanned(id, banned)
	case "server":
		err = c.DB.SetServerBanned(id, banned)
	default:
		return c.Reply(update, "Usage: ban user|server <id> [lift]")
	}
	if err != nil {
		c.Logger.WithError(err).WithField("id", id).Error("Failed to update ban")
		return c.Reply(update, "Database error, try again later.")
	}

	c.Logger.WithFields(logger.Fields{
		"target": args[0],
		"id":     id,
		"banned": banned,
	}).Info("Ban updated")

	if banned {
		return c.Reply(update, fmt.Sprintf("Banned %s %d.", strings.ToLower(args[0]), id))
	}
	return c.Reply(update, fmt.Sprintf("Lifted ban on %s %d.", strings.ToLower(args[0]), id))
}
