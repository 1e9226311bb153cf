package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Content struct {
	Type     string `json:"type"` // "text", "image_url"
	Text     string `json:"text,omitempty"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url,omitzero"`
}

func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

func NewImageContent(url string) Content {
	c := Content{Type: "image_url"}
	c.ImageURL.URL = url
	return c
}

type Message struct {
	Role string `json:"role"`
	// for multimodal requests
	Content []Content `json:"-"`
	// for plain text
	Text string `json:"-"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	aux := &struct {
		*Alias
		Content any `json:"content,omitzero"`
	}{
		Alias: (*Alias)(&m),
	}

	if len(m.Content) > 0 {
		aux.Content = m.Content
	} else {
		aux.Content = m.Text
	}

	return json.Marshal(aux)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message
	aux := &struct {
		*Alias
		Content any `json:"content,omitzero"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch content := aux.Content.(type) {
	case string:
		m.Text = content
	case []any:
		var contents []Content
		raw, _ := json.Marshal(content)
		if err := json.Unmarshal(raw, &contents); err != nil {
			return err
		}
		m.Content = contents
	case nil:
	default:
		return fmt.Errorf("unexpected content type: %T", content)
	}

	return nil
}

type ModelParams struct {
	Temperature      *float32 `json:"temperature,omitzero"`
	MaxTokens        *int     `json:"max_tokens,omitzero"`
	TopP             *float32 `json:"top_p,omitzero"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitzero"`
	PresencePenalty  *float32 `json:"presence_penalty,omitzero"`
}

type CompletionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      *float32  `json:"temperature,omitzero"`
	MaxTokens        *int      `json:"max_tokens,omitzero"`
	TopP             *float32  `json:"top_p,omitzero"`
	FrequencyPenalty *float32  `json:"frequency_penalty,omitzero"`
	PresencePenalty  *float32  `json:"presence_penalty,omitzero"`
}

type ModelUsage struct {
	CompletionTokens int64 `json:"completion_tokens"`
	PromptTokens     int64 `json:"prompt_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type MessageResponse struct {
	Content string `json:"content"`
}

type CompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message MessageResponse `json:"message"`
	} `json:"choices"`
	Usage ModelUsage     `json:"usage,omitzero"`
	Error *ProviderError `json:"error,omitzero"`
}

type ProviderError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

type Provider interface {
	Name() string
	Ask(ctx context.Context, request CompletionRequest) (string, *CompletionResponse, error)
}

// AIError represents an enriched error from an AI provider
type AIError struct {
	// OriginalErr is the original error (if any)
	OriginalErr error `json:"-"`
	// ProviderName is the provider name (e.g. "openai-compatible")
	ProviderName string `json:"provider_name"`
	// ModelName is the model name where the error occurred
	ModelName string `json:"model_name"`
	// HTTPStatusCode is the HTTP response status code (if applicable)
	HTTPStatusCode int `json:"http_status_code"`
	// ErrorCode is the provider's error code (e.g. "insufficient_quota")
	ErrorCode string `json:"error_code"`
	// Message is a human-readable error message
	Message string `json:"message"`
}

func (e *AIError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	}
	if e.ProviderName != "" && e.ModelName != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.ProviderName, e.ModelName, msg)
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.ErrorCode)
	}
	if e.HTTPStatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.HTTPStatusCode, msg)
	}
	return msg
}

func (e *AIError) Unwrap() error {
	return e.OriginalErr
}

// ErrorType returns the error type based on HTTP status code and error code
func (e *AIError) ErrorType() ErrorType {
	switch {
	case e.HTTPStatusCode == 429:
		return ErrorTypeRateLimit
	case e.HTTPStatusCode >= 500:
		return ErrorTypeServer
	case e.HTTPStatusCode == 400 && strings.Contains(strings.ToLower(e.Message), "policy"):
		return ErrorTypeContentPolicy
	case e.HTTPStatusCode >= 400 && e.HTTPStatusCode < 500:
		return ErrorTypeClient
	default:
		return ErrorTypeUnknown
	}
}

type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeServer        ErrorType = "server"
	ErrorTypeClient        ErrorType = "client"
	ErrorTypeContentPolicy ErrorType = "content_policy"
	ErrorTypeUnknown       ErrorType = "unknown"
)

func GetErrorType(err error) ErrorType {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.ErrorType()
	}
	return ErrorTypeUnknown
}
