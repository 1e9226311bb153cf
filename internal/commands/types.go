package commands

import (
	"time"

	"github.com/voidkat/voidkat/internal/discord"
)

type Command interface {
	Name() string
	Aliases() []string
	Handle(update discord.Update) error
	Execute(update discord.Update) error
	GetQueueConfig() QueueConfig
}

type ThrottleConfig struct {
	Period      time.Duration
	Requests    int
	Concurrency int
}

type QueueConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Throttle   ThrottleConfig
}
