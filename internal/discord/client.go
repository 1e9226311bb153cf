package discord

import (
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/voidkat/voidkat/internal/logger"
)

type BotClient struct {
	session *discordgo.Session
	logger  logger.Logger
}

func NewBotClient(token string, log logger.Logger) (Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &BotClient{
		session: session,
		logger:  log,
	}, nil
}

func (c *BotClient) Start() error {
	return c.session.Open()
}

func (c *BotClient) Stop() error {
	return c.session.Close()
}

func (c *BotClient) Reply(channelID, text string) error {
	_, err := c.session.ChannelMessageSend(channelID, text)
	return err
}

func (c *BotClient) Typing(channelID string) error {
	return c.session.ChannelTyping(channelID)
}

func (c *BotClient) OnMessage(handler func(update Update)) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		handler(adaptMessage(m.Message))
	})
}

func (c *BotClient) OnServerJoin(handler func(server Server)) {
	c.session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		handler(Server{
			ID:   parseSnowflake(g.ID),
			Name: g.Name,
		})
	})
}

func (c *BotClient) Self() User {
	state := c.session.State.User
	if state == nil {
		return User{}
	}
	return User{
		ID:       parseSnowflake(state.ID),
		Username: state.Username,
		Bot:      state.Bot,
	}
}

func adaptMessage(m *discordgo.Message) Update {
	update := Update{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		ServerID:  parseSnowflake(m.GuildID),
		Author: User{
			ID:       parseSnowflake(m.Author.ID),
			Username: m.Author.Username,
			Bot:      m.Author.Bot,
		},
		Text: m.Content,
	}
	for _, a := range m.Attachments {
		update.Attachments = append(update.Attachments, Attachment{
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        int64(a.Size),
		})
	}
	return update
}

// parseSnowflake converts a Discord ID to the int64 form used as a
// database key. Empty IDs (direct messages have no guild) become 0.
func parseSnowflake(id string) int64 {
	if id == "" {
		return 0
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
