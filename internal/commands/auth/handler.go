package auth

import (
	"strings"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/base"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
)

const CommandName = "auth"

// Command marks a server as having accepted the terms of service,
// which unlocks every other command on it.
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

func (c *Command) Execute(update discord.Update) error {
	if update.IsDirect() {
		return c.Reply(update, "Run this inside the server you want to authenticate.")
	}
	if !c.IsOwner(update) {
		return c.Reply(update, "Only the bot owner can authenticate a server.")
	}

	revoke := strings.EqualFold(strings.TrimSpace(update.Text), "revoke")
	if err := c.DB.SetServerAuthenticated(update.ServerID, !revoke); err != nil {
		c.Logger.WithError(err).WithField("server_id", update.ServerID).
			Error("Failed to update server authentication")
		return c.Reply(update, "Database error, try again later.")
	}

	c.Logger.WithFields(logger.Fields{
		"server_id":     update.ServerID,
		"authenticated": !revoke,
	}).Info("Server authentication changed")

	if revoke {
		return c.Reply(update, "Server authentication revoked.")
	}
	return c.Reply(update, "Server authenticated, all commands are now available.")
}
