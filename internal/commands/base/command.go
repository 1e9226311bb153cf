package base

import (
	"net/http"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/chat"
	"github.com/voidkat/voidkat/internal/commands"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
	"github.com/voidkat/voidkat/internal/queue"
)

type Command struct {
	command      commands.Command
	Client       discord.Client
	Logger       logger.Logger
	Cfg          *config.Config
	Capabilities config.Capabilities
	Queue        *queue.Queue
	DB           database.Database
	History      *chat.HistoryStore
	Orchestrator *chat.Orchestrator
	HttpClient   *http.Client
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:      cmd,
		Client:       di.BotClient,
		Logger:       di.Logger,
		Cfg:          di.Cfg,
		Capabilities: di.Capabilities,
		Queue:        di.Queue,
		DB:           di.DB,
		History:      di.History,
		Orchestrator: di.Orchestrator,
		HttpClient:   di.HttpClient,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) Handle(update discord.Update) error {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	if cfg.Queue.Enabled {
		config := c.command.GetQueueConfig()
		return c.Queue.Add(c.command, update,
			config.MaxRetries,
			config.RetryDelay)
	}
	return c.command.Execute(update)
}

func (c *Command) GetQueueConfig() commands.QueueConfig {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	return commands.QueueConfig{
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Timeout:    cfg.Queue.Timeout,
		Throttle: commands.ThrottleConfig{
			Concurrency: cfg.Queue.Throttle.Concurrency,
			Period:      cfg.Queue.Throttle.Period,
			Requests:    cfg.Queue.Throttle.Requests,
		},
	}
}

func (c *Command) Execute(update discord.Update) error {
	return nil
}

// Reply sends the text in order, one message per chunk, respecting
// the platform length ceiling.
func (c *Command) Reply(update discord.Update, text string) error {
	for _, chunk := range chat.SplitReply(text, chat.ReplyLimit) {
		if err := c.Client.Reply(update.ChannelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReplyError converts a pipeline failure into its single user-facing
// message and sends it.
func (c *Command) ReplyError(update discord.Update, err error) error {
	return c.Reply(update, chat.UserMessage(err))
}

// ConversationKey resolves the thread a message belongs to.
func (c *Command) ConversationKey(update discord.Update, shared bool) chat.ConversationKey {
	return chat.ConversationKey{
		ServerID: update.ServerID,
		UserID:   update.Author.ID,
		Shared:   shared,
	}
}

// IsOwner reports whether the author is the configured bot owner.
func (c *Command) IsOwner(update discord.Update) bool {
	ownerID := c.Cfg.Discord().OwnerID
	return ownerID != 0 && update.Author.ID == ownerID
}
