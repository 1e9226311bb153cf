package database

import (
	"context"
	"fmt"
)

func (s *sqliteDB) AppendChatTurn(ctx context.Context, turn ChatTurn) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO chat_turns (server_id, user_id, shared, user_message, assistant_message)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ServerID, turn.UserID, turn.Shared, turn.UserMessage, turn.AssistantMessage)
	return err
}

// RecentChatTurns returns up to limit newest turns in chronological
// order. For shared conversations userID is ignored, the thread
// belongs to the server.
func (s *sqliteDB) RecentChatTurns(serverID, userID int64, shared bool, limit int) ([]ChatTurn, error) {
	query := `
		SELECT id, server_id, user_id, shared, user_message, assistant_message, created_at
		FROM chat_turns
		WHERE server_id = ? AND shared = ?`
	args := []any{serverID, shared}
	if !shared {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var t ChatTurn
		if err := rows.Scan(
			&t.ID, &t.ServerID, &t.UserID, &t.Shared,
			&t.UserMessage, &t.AssistantMessage, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	// newest-first from the query, flip to chronological
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *sqliteDB) ClearChatTurns(ctx context.Context, serverID, userID int64, shared bool) (int64, error) {
	query := "DELETE FROM chat_turns WHERE server_id = ? AND shared = ?"
	args := []any{serverID, shared}
	if !shared {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	res, err := s.ExecWithRetry(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteDB) CountChatTurns(serverID, userID int64, shared bool) (int, error) {
	query := "SELECT COUNT(*) FROM chat_turns WHERE server_id = ? AND shared = ?"
	args := []any{serverID, shared}
	if !shared {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	var count int
	err := s.db.QueryRow(query, args...).Scan(&count)
	return count, err
}
