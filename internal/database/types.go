package database

import (
	"context"
	"database/sql"
	"time"
)

type Database interface {
	GetDB() *sql.DB

	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)

	GetUser(userID int64) (*User, error)
	SaveUser(user User) error
	SetUserBanned(userID int64, banned bool) error

	GetServer(serverID int64) (*Server, error)
	SaveServer(server Server) error
	SetServerAuthenticated(serverID int64, authenticated bool) error
	SetServerBanned(serverID int64, banned bool) error

	// Conversation history
	AppendChatTurn(ctx context.Context, turn ChatTurn) error
	RecentChatTurns(serverID, userID int64, shared bool, limit int) ([]ChatTurn, error)
	ClearChatTurns(ctx context.Context, serverID, userID int64, shared bool) (int64, error)
	CountChatTurns(serverID, userID int64, shared bool) (int, error)

	PurgeOldTasks(retentionDays int) error
}

// ChatTurn is one completed exchange: the user prompt and the reply
// it produced. Shared turns belong to the whole server, personal
// turns to one user on one server.
type ChatTurn struct {
	ID               int64     `json:"id"`
	ServerID         int64     `json:"server_id"`
	UserID           int64     `json:"user_id"`
	Shared           bool      `json:"shared"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	CreatedAt        time.Time `json:"created_at"`
}

type Server struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Authenticated bool      `json:"authenticated"`
	Banned        bool      `json:"banned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) Equal(user User) bool {
	return u.Username == user.Username && u.Banned == user.Banned
}
