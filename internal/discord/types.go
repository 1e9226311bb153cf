package discord

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Server struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Update is the platform-independent shape of one inbound message.
// It is what commands receive and what queued tasks serialize.
type Update struct {
	MessageID   string       `json:"message_id"`
	ChannelID   string       `json:"channel_id"`
	ServerID    int64        `json:"server_id"`
	ServerName  string       `json:"server_name,omitempty"`
	Author      User         `json:"author"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// IsDirect reports whether the message arrived outside any server.
func (u Update) IsDirect() bool {
	return u.ServerID == 0
}

type Client interface {
	Start() error
	Stop() error
	Reply(channelID, text string) error
	// Typing signals activity in the channel while a slow operation
	// runs. Best effort, failures are ignored by callers.
	Typing(channelID string) error
	OnMessage(handler func(update Update))
	OnServerJoin(handler func(server Server))
	Self() User
}
