package chat

import (
	"context"
	"time"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/logger"
)

// Orchestrator runs one chat turn end to end: resolve attachments,
// assemble the payload, call the completion API, persist the turn,
// split the reply. Invocations are independent, there is no shared
// mutable state and no automatic retry.
type Orchestrator struct {
	provider  ai.Provider
	assembler *Assembler
	history   *HistoryStore
	resolver  *Resolver
	model     string
	params    ai.ModelParams
	timeout   time.Duration
	logger    logger.Logger
}

func NewOrchestrator(
	provider ai.Provider,
	assembler *Assembler,
	history *HistoryStore,
	resolver *Resolver,
	cfg config.AIConfig,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		assembler: assembler,
		history:   history,
		resolver:  resolver,
		model:     cfg.Model,
		params: ai.ModelParams{
			Temperature:      &cfg.Temperature,
			MaxTokens:        &cfg.MaxTokens,
			TopP:             &cfg.TopP,
			FrequencyPenalty: &cfg.FrequencyPenalty,
			PresencePenalty:  &cfg.PresencePenalty,
		},
		timeout: cfg.RequestTimeout,
		logger:  log,
	}
}

// Respond executes one turn and returns the reply chunks to emit in
// order. The turn is persisted only after a successful completion, a
// failed attempt leaves no state behind.
func (o *Orchestrator) Respond(ctx context.Context, key ConversationKey, text string) ([]string, error) {
	log := o.logger.WithFields(logger.Fields{
		"server_id": key.ServerID,
		"user_id":   key.UserID,
		"shared":    key.Shared,
	})

	attachments, err := o.resolver.Resolve(ctx, text)
	if err != nil {
		log.WithError(err).Warn("Attachment resolution failed")
		return nil, err
	}

	messages, err := o.assembler.Assemble(key, text, attachments)
	if err != nil {
		return nil, err
	}

	request := ai.CompletionRequest{
		Model:            o.model,
		Messages:         messages,
		Temperature:      o.params.Temperature,
		MaxTokens:        o.params.MaxTokens,
		TopP:             o.params.TopP,
		FrequencyPenalty: o.params.FrequencyPenalty,
		PresencePenalty:  o.params.PresencePenalty,
	}

	askCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	response, completion, err := o.provider.Ask(askCtx, request)
	if err != nil {
		fields := logger.Fields{
			"model":    o.model,
			"duration": time.Since(start).String(),
			"messages": len(messages),
		}
		if askCtx.Err() == context.DeadlineExceeded {
			fields["timeout_reason"] = "deadline_exceeded"
		}
		log.WithError(err).WithFields(fields).Error("Completion request failed")
		return nil, NewUpstreamError("completion request failed", err)
	}

	// the platform rejects empty messages, so an empty completion can
	// neither be sent nor stored as a turn
	if response == "" {
		log.WithField("model", o.model).Error("Completion returned empty content")
		return nil, NewUpstreamError("completion returned empty content", nil)
	}

	log.WithFields(logger.Fields{
		"model":             o.model,
		"duration":          time.Since(start).String(),
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	}).Info("Completion received")

	if err := o.history.Append(ctx, key, text, response); err != nil {
		log.WithError(err).Error("Failed to persist chat turn")
		return nil, err
	}

	return SplitReply(response, ReplyLimit), nil
}
