package core

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/voidkat/voidkat/internal/chat"
	"github.com/voidkat/voidkat/internal/commands"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
	"github.com/voidkat/voidkat/internal/queue"
)

// ungatedCommands run on servers that have not accepted the terms
// yet, everything else is blocked until someone runs auth.
var ungatedCommands = []string{"auth", "chatstatus"}

type Bot struct {
	commands map[string]commands.Command
	logger   logger.Logger
	queue    *queue.Queue
	db       database.Database
	client   discord.Client
	cfg      *config.Config
}

func NewBot(
	client discord.Client,
	queue *queue.Queue,
	logger logger.Logger,
	db database.Database,
	cfg *config.Config,
) (*Bot, error) {
	return &Bot{
		commands: make(map[string]commands.Command),
		client:   client,
		queue:    queue,
		cfg:      cfg,
		logger:   logger,
		db:       db,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.client.OnServerJoin(b.registerServer)
	b.client.OnMessage(b.handleMessage)

	go b.queue.Start(ctx, b.commands)

	if err := b.client.Start(); err != nil {
		return err
	}
	b.logger.Info("Bot started")

	<-ctx.Done()
	return b.client.Stop()
}

func (b *Bot) RegisterCommand(cmd commands.Command) {
	if cmd == nil {
		b.logger.Error("Attempting to register nil command")
		return
	}

	name := cmd.Name()
	if name == "" {
		b.logger.Error("Attempting to register command with empty name")
		return
	}

	b.logger.WithFields(logger.Fields{
		"command": name,
	}).Debug("Registering command")

	b.commands[name] = cmd
}

func (b *Bot) GetCommands() map[string]commands.Command {
	return b.commands
}

// registerServer upserts the guild so the auth and ban flags have a
// row to live on. Re-joins keep existing flags.
func (b *Bot) registerServer(server discord.Server) {
	stored, err := b.db.GetServer(server.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			b.logger.WithFields(logger.Fields{
				"server_id": server.ID,
				"name":      server.Name,
			}).Info("Registering new server")
			if err := b.db.SaveServer(database.Server{ID: server.ID, Name: server.Name}); err != nil {
				b.logger.WithError(err).Error("Failed to save server")
			}
		} else {
			b.logger.WithError(err).Error("Failed to load server")
		}
		return
	}
	if stored.Name != server.Name {
		if err := b.db.SaveServer(database.Server{ID: server.ID, Name: server.Name}); err != nil {
			b.logger.WithError(err).Error("Failed to update server")
		}
	}
}

func (b *Bot) handleMessage(update discord.Update) {
	prefix := b.cfg.Discord().Prefix
	if !strings.HasPrefix(update.Text, prefix) {
		return
	}

	parts := strings.Fields(strings.TrimPrefix(update.Text, prefix))
	if len(parts) == 0 {
		return
	}
	name := strings.ToLower(parts[0])

	var cmd commands.Command
	for cmdName, c := range b.commands {
		if cmdName == name || slices.Contains(c.Aliases(), name) {
			cmd = c
			break
		}
	}
	if cmd == nil {
		return
	}

	if !b.passesGates(update, cmd.Name()) {
		return
	}

	b.logger.WithFields(logger.Fields{
		"command":   cmd.Name(),
		"user_id":   update.Author.ID,
		"username":  update.Author.Username,
		"server_id": update.ServerID,
		"message":   truncate(update.Text, 120),
	}).Info("Handling command")

	// commands see only their arguments
	update.Text = strings.Join(parts[1:], " ")

	go func(cmd commands.Command, update discord.Update) {
		if err := cmd.Handle(update); err != nil {
			b.logger.WithError(err).WithFields(logger.Fields{
				"command":   cmd.Name(),
				"user_id":   update.Author.ID,
				"server_id": update.ServerID,
			}).Error("Failed to handle command")
			b.sendErrorMessage(err, update.ChannelID)
		}
	}(cmd, update)
}

// passesGates enforces user ban, server ban, and the server consent
// gate, in that order. Banned callers are ignored silently.
func (b *Bot) passesGates(update discord.Update, cmdName string) bool {
	b.upsertUser(update.Author)

	user, err := b.db.GetUser(update.Author.ID)
	if err == nil && user.Banned {
		b.logger.WithFields(logger.Fields{
			"user_id":  update.Author.ID,
			"username": update.Author.Username,
		}).Warn("Ignoring banned user")
		return false
	}

	if update.IsDirect() {
		// direct messages carry no server context to authenticate
		ownerID := b.cfg.Discord().OwnerID
		if ownerID != 0 && update.Author.ID == ownerID {
			return true
		}
		b.sendMessage(update.ChannelID, "Commands only work inside a server.")
		return false
	}

	server, err := b.db.GetServer(update.ServerID)
	if err != nil {
		if err == sql.ErrNoRows {
			server = &database.Server{ID: update.ServerID, Name: update.ServerName}
			if err := b.db.SaveServer(*server); err != nil {
				b.logger.WithError(err).Error("Failed to save server")
			}
		} else {
			b.logger.WithError(err).Error("Failed to load server")
			b.sendMessage(update.ChannelID, "Database error, try again later.")
			return false
		}
	}
	if server.Banned {
		b.logger.WithField("server_id", update.ServerID).Warn("Ignoring banned server")
		return false
	}
	if !server.Authenticated && !slices.Contains(ungatedCommands, cmdName) {
		b.sendMessage(update.ChannelID,
			"This server has not accepted the terms of service yet. The bot owner must run auth first.")
		return false
	}

	return true
}

func (b *Bot) upsertUser(author discord.User) {
	stored, err := b.db.GetUser(author.ID)
	user := database.User{
		ID:       author.ID,
		Username: author.Username,
	}
	if err != nil {
		if err == sql.ErrNoRows {
			b.logger.WithField("user", user).Info("Store new user")
			if err := b.db.SaveUser(user); err != nil {
				b.logger.WithError(err).WithField("user", user).Error("Error save new user")
			}
		} else {
			b.logger.WithError(err).Error("Error get user by id")
		}
		return
	}
	if stored.Username != user.Username {
		if err := b.db.SaveUser(user); err != nil {
			b.logger.WithError(err).WithField("user", user).Error("Error update user")
		}
	}
}

func (b *Bot) sendErrorMessage(err error, channelID string) {
	b.sendMessage(channelID, chat.UserMessage(err))
}

func (b *Bot) sendMessage(channelID, text string) {
	if err := b.client.Reply(channelID, text); err != nil {
		b.logger.WithError(err).Error("Failed to send message")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
