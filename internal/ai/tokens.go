package ai

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/voidkat/voidkat/internal/logger"
)

// TokenEstimator counts prompt tokens before a request is sent, so
// oversized prompts are rejected locally instead of burning quota.
type TokenEstimator interface {
	Count(text string) int
}

type tiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

func (e *tiktokenEstimator) Count(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// heuristicEstimator approximates a token as ~4 characters, rounded up.
type heuristicEstimator struct{}

func (heuristicEstimator) Count(text string) int {
	return (len(text) + 3) / 4
}

func NewHeuristicEstimator() TokenEstimator {
	return heuristicEstimator{}
}

// NewTokenEstimator returns a BPE-backed estimator for the model, or
// the character heuristic when the encoding cannot be loaded (first
// use downloads the BPE ranks, which can fail offline).
func NewTokenEstimator(model string, log logger.Logger) TokenEstimator {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	}
	if err != nil {
		log.WithError(err).WithField("model", model).
			Warn("Failed to load tokenizer, falling back to character heuristic")
		return heuristicEstimator{}
	}
	return &tiktokenEstimator{encoding: encoding}
}
