package chat

import (
	"context"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/logger"
)

// ConversationKey identifies one logical thread. Shared threads
// belong to a whole server and ignore UserID, private threads are
// scoped to one user on one server. Two threads never merge.
type ConversationKey struct {
	ServerID int64
	UserID   int64
	Shared   bool
}

const DefaultHistoryLimit = 10

type HistoryStore struct {
	db     database.Database
	limit  int
	logger logger.Logger
}

func NewHistoryStore(db database.Database, limit int, log logger.Logger) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{
		db:     db,
		limit:  limit,
		logger: log,
	}
}

func (s *HistoryStore) Append(ctx context.Context, key ConversationKey, userMessage, assistantMessage string) error {
	err := s.db.AppendChatTurn(ctx, database.ChatTurn{
		ServerID:         key.ServerID,
		UserID:           key.UserID,
		Shared:           key.Shared,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	})
	if err != nil {
		return NewStorageError("failed to append chat turn", err)
	}
	return nil
}

// ReadRecent returns the newest turns in chronological order as
// role-tagged messages, the assistant line first within each pair.
func (s *HistoryStore) ReadRecent(key ConversationKey) ([]ai.Message, error) {
	turns, err := s.db.RecentChatTurns(key.ServerID, key.UserID, key.Shared, s.limit)
	if err != nil {
		return nil, NewStorageError("failed to read chat history", err)
	}

	messages := make([]ai.Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			ai.Message{Role: ai.RoleAssistant, Text: turn.AssistantMessage},
			ai.Message{Role: ai.RoleUser, Text: turn.UserMessage},
		)
	}
	return messages, nil
}

// Clear removes every turn under the key. Clearing an empty thread
// is a no-op success.
func (s *HistoryStore) Clear(ctx context.Context, key ConversationKey) (int64, error) {
	removed, err := s.db.ClearChatTurns(ctx, key.ServerID, key.UserID, key.Shared)
	if err != nil {
		return 0, NewStorageError("failed to clear chat history", err)
	}
	return removed, nil
}

// Turns exposes the raw stored pairs for history inspection commands.
func (s *HistoryStore) Turns(key ConversationKey) ([]database.ChatTurn, error) {
	turns, err := s.db.RecentChatTurns(key.ServerID, key.UserID, key.Shared, s.limit)
	if err != nil {
		return nil, NewStorageError("failed to read chat history", err)
	}
	return turns, nil
}

func (s *HistoryStore) Count(key ConversationKey) (int, error) {
	count, err := s.db.CountChatTurns(key.ServerID, key.UserID, key.Shared)
	if err != nil {
		return 0, NewStorageError("failed to count chat turns", err)
	}
	return count, nil
}

func (s *HistoryStore) Limit() int {
	return s.limit
}
