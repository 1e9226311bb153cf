package chat

import (
	"fmt"
	"strings"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/logger"
)

// Assembler builds the ordered completion payload: system prompt,
// history pairs oldest to newest, new user turn last.
type Assembler struct {
	estimator    ai.TokenEstimator
	history      *HistoryStore
	systemPrompt string
	budget       int
	logger       logger.Logger
}

func NewAssembler(
	estimator ai.TokenEstimator,
	history *HistoryStore,
	systemPrompt string,
	budget int,
	log logger.Logger,
) *Assembler {
	return &Assembler{
		estimator:    estimator,
		history:      history,
		systemPrompt: systemPrompt,
		budget:       budget,
		logger:       log,
	}
}

// Assemble validates the new turn against the token budget and
// returns the full message list. The budget covers system prompt plus
// the new message only, history is capped structurally by turn count
// so it never needs a tokenizer pass.
func (a *Assembler) Assemble(key ConversationKey, text string, attachments []ai.Content) ([]ai.Message, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, NewValidationError("Give me something to work with, the message is empty.")
	}

	tokens := a.estimator.Count(a.systemPrompt) + a.estimator.Count(text)
	if tokens > a.budget {
		return nil, NewValidationError(fmt.Sprintf(
			"Message too long: %d tokens, the limit is %d.", tokens, a.budget,
		))
	}

	history, err := a.history.ReadRecent(key)
	if err != nil {
		// degrade to an empty thread rather than failing the turn
		a.logger.WithError(err).WithFields(logger.Fields{
			"server_id": key.ServerID,
			"user_id":   key.UserID,
			"shared":    key.Shared,
		}).Error("Failed to load history, continuing without it")
		history = nil
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Text: a.systemPrompt})
	messages = append(messages, history...)

	userTurn := ai.Message{Role: ai.RoleUser}
	if len(attachments) > 0 {
		userTurn.Content = append([]ai.Content{ai.NewTextContent(text)}, attachments...)
	} else {
		userTurn.Text = text
	}
	messages = append(messages, userTurn)

	return messages, nil
}
