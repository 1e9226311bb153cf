package config

import "time"

type DiscordConfig struct {
	Token   string
	OwnerID int64
	Prefix  string
}

type AIConfig struct {
	APIKey           string
	BaseURL          string
	ChatURL          string
	Model            string
	SystemPrompt     string
	TokenBudget      int
	HistoryLimit     int
	RequestTimeout   time.Duration
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

type AttachmentsConfig struct {
	MaxSize       int64
	Timeout       time.Duration
	ProbeCacheTTL time.Duration
}

type Capabilities struct {
	ChatEnabled bool
}

type GlobalConfig struct {
	StorageDir        string
	TaskRetentionDays int
}

type HTTPConfig struct {
	Proxy   string
	NoProxy []string
}

func (c HTTPConfig) GetProxy() string {
	return c.Proxy
}

func (c HTTPConfig) GetNoProxy() []string {
	return c.NoProxy
}

type QueueThrottleOptions struct {
	Concurrency int
	Period      time.Duration
	Requests    int
}

type QueueOptions struct {
	Enabled    bool
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Throttle   QueueThrottleOptions
}

type CommandConfig struct {
	Enabled bool
	Queue   QueueOptions
}
