package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/voidkat/voidkat/internal/logger"
)

const (
	GLOBAL_STORAGE_DIR    = "global.storage_dir"
	GLOBAL_TASK_RETENTION = "global.task_retention_days"
	DISCORD_TOKEN         = "discord.token"
	DISCORD_OWNER_ID      = "discord.owner_id"
	DISCORD_PREFIX        = "discord.prefix"
	HTTP_PROXY            = "http.proxy"
	HTTP_NO_PROXY         = "http.no_proxy"
	AI_API_KEY            = "ai.api_key"
	AI_BASE_URL           = "ai.base_url"
	AI_CHAT_URL           = "ai.chat_url"
	AI_MODEL              = "ai.model"
	AI_SYSTEM_PROMPT      = "ai.system_prompt"
	AI_TOKEN_BUDGET       = "ai.token_budget"
	AI_HISTORY_LIMIT      = "ai.history_limit"
	AI_REQUEST_TIMEOUT    = "ai.request_timeout"
	AI_TEMPERATURE        = "ai.model_params.temperature"
	AI_MAX_TOKENS         = "ai.model_params.max_tokens"
	AI_TOP_P              = "ai.model_params.top_p"
	AI_FREQUENCY_PENALTY  = "ai.model_params.frequency_penalty"
	AI_PRESENCE_PENALTY   = "ai.model_params.presence_penalty"
	ATTACHMENTS_MAX_SIZE  = "attachments.max_size"
	ATTACHMENTS_TIMEOUT   = "attachments.timeout"
	ATTACHMENTS_PROBE_TTL = "attachments.probe_cache_ttl"
	DATABASE_DSN          = "database.dsn"
	LOGGING_LEVEL         = "logging.level"
	LOGGING_WRITE_IN_FILE = "logging.write_in_file"
	LOGGING_FILE_PATH     = "logging.file_path"
)

// defaultSystemPrompt controls the personality of the bot. Overridable in TOML.
const defaultSystemPrompt = "You are VoidKat, a cybernetic cat with void-black fur " +
	"and the intelligence of a human. You drift between dimensions, realities and " +
	"timelines to keep them safe, though you are young, clumsy and often land in " +
	"the wrong place. You are sarcastic and you are allowed to have opinions."

var defaultSQLiteParams = map[string]string{
	"_journal":      "WAL",
	"_busy_timeout": "10000",
	"_synchronous":  "NORMAL",
	"_cache":        "shared",
	"_auto_vacuum":  "INCREMENTAL",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func Load() (*Config, error) {
	// Token and API key may live in a .env next to the binary.
	_ = godotenv.Load()

	k := koanf.New(".")

	defaults := map[string]any{
		GLOBAL_STORAGE_DIR:    "storage",
		GLOBAL_TASK_RETENTION: 7,
		DISCORD_TOKEN:         "",
		DISCORD_OWNER_ID:      int64(0),
		DISCORD_PREFIX:        "?",
		HTTP_PROXY:            nil,
		DATABASE_DSN:          "voidkat.db?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache=shared",
		LOGGING_LEVEL:         "info",
		LOGGING_WRITE_IN_FILE: false,
		LOGGING_FILE_PATH:     "voidkat.log",
		AI_API_KEY:            "",
		AI_BASE_URL:           "https://api.openai.com/v1",
		AI_CHAT_URL:           "/chat/completions",
		AI_MODEL:              "gpt-3.5-turbo",
		AI_SYSTEM_PROMPT:      defaultSystemPrompt,
		AI_TOKEN_BUDGET:       1024,
		AI_HISTORY_LIMIT:      10,
		AI_REQUEST_TIMEOUT:    2 * time.Minute,
		AI_TEMPERATURE:        1.0,
		AI_MAX_TOKENS:         512,
		AI_TOP_P:              1.0,
		AI_FREQUENCY_PENALTY:  0.0,
		AI_PRESENCE_PENALTY:   0.0,
		ATTACHMENTS_MAX_SIZE:  int64(20 * 1024 * 1024),
		ATTACHMENTS_TIMEOUT:   30 * time.Second,
		ATTACHMENTS_PROBE_TTL: 5 * time.Minute,

		"commands.chat.enabled":                      true,
		"commands.chat.queue.enabled":                false,
		"commands.fetch.enabled":                     true,
		"commands.fetch.queue.enabled":               true,
		"commands.fetch.queue.max_retries":           2,
		"commands.fetch.queue.retry_delay":           30 * time.Second,
		"commands.fetch.queue.timeout":               5 * time.Minute,
		"commands.fetch.queue.throttle.period":       10 * time.Second,
		"commands.fetch.queue.throttle.requests":     2,
		"commands.fetch.queue.throttle.concurrency": 2,
	}
	k.Load(confmap.Provider(defaults, "."), nil)

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		}
	}

	k.Load(env.Provider("VOIDKAT_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "VOIDKAT_")),
			"_", ".",
		)
	}), nil)

	if k.Get(DISCORD_TOKEN) == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	return &Config{k: k}, nil
}

// NewFromMap builds a Config from raw key/value pairs, bypassing
// defaults, files and the environment. Used in tests.
func NewFromMap(values map[string]any) *Config {
	k := koanf.New(".")
	k.Load(confmap.Provider(values, "."), nil)
	return &Config{k: k}
}

func (c *Config) Discord() DiscordConfig {
	return DiscordConfig{
		Token:   c.k.String(DISCORD_TOKEN),
		OwnerID: c.k.Int64(DISCORD_OWNER_ID),
		Prefix:  c.k.String(DISCORD_PREFIX),
	}
}

func (c *Config) AI() AIConfig {
	return AIConfig{
		APIKey:           c.k.String(AI_API_KEY),
		BaseURL:          c.k.String(AI_BASE_URL),
		ChatURL:          c.k.String(AI_CHAT_URL),
		Model:            c.k.String(AI_MODEL),
		SystemPrompt:     c.k.String(AI_SYSTEM_PROMPT),
		TokenBudget:      c.k.Int(AI_TOKEN_BUDGET),
		HistoryLimit:     c.k.Int(AI_HISTORY_LIMIT),
		RequestTimeout:   c.k.Duration(AI_REQUEST_TIMEOUT),
		Temperature:      float32(c.k.Float64(AI_TEMPERATURE)),
		MaxTokens:        c.k.Int(AI_MAX_TOKENS),
		TopP:             float32(c.k.Float64(AI_TOP_P)),
		FrequencyPenalty: float32(c.k.Float64(AI_FREQUENCY_PENALTY)),
		PresencePenalty:  float32(c.k.Float64(AI_PRESENCE_PENALTY)),
	}
}

func (c *Config) Attachments() AttachmentsConfig {
	return AttachmentsConfig{
		MaxSize:       c.k.Int64(ATTACHMENTS_MAX_SIZE),
		Timeout:       c.k.Duration(ATTACHMENTS_TIMEOUT),
		ProbeCacheTTL: c.k.Duration(ATTACHMENTS_PROBE_TTL),
	}
}

// Capabilities are resolved once at startup instead of probing the
// environment at call sites.
func (c *Config) Capabilities() Capabilities {
	return Capabilities{
		ChatEnabled: c.k.Bool("commands.chat.enabled") && c.k.String(AI_API_KEY) != "",
	}
}

func (c *Config) GetCommandConfig(name string) *CommandConfig {
	concurrency := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.concurrency", name))
	if concurrency == 0 {
		concurrency = 1
	}
	requests := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.requests", name))
	if requests == 0 {
		requests = 1
	}
	period := c.k.Duration(fmt.Sprintf("commands.%s.queue.throttle.period", name))
	if period == 0 {
		period = 10 * time.Second
	}
	timeout := c.k.Duration(fmt.Sprintf("commands.%s.queue.timeout", name))
	if timeout == 0 {
		timeout = 1 * time.Minute
	}
	return &CommandConfig{
		Enabled: c.k.Bool(fmt.Sprintf("commands.%s.enabled", name)),
		Queue: QueueOptions{
			Enabled:    c.k.Bool(fmt.Sprintf("commands.%s.queue.enabled", name)),
			MaxRetries: c.k.Int(fmt.Sprintf("commands.%s.queue.max_retries", name)),
			RetryDelay: c.k.Duration(fmt.Sprintf("commands.%s.queue.retry_delay", name)),
			Timeout:    timeout,
			Throttle: QueueThrottleOptions{
				Concurrency: concurrency,
				Period:      period,
				Requests:    requests,
			},
		},
	}
}

func (c *Config) Log() logger.Options {
	return logger.Options{
		Level:       c.k.String(LOGGING_LEVEL),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue := c.k.Get(HTTP_PROXY); proxyValue != nil {
		proxy, _ = proxyValue.(string)
	}

	return HTTPConfig{
		Proxy:   proxy,
		NoProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func (c *Config) GetDatabaseDSN() string {
	dsn := c.k.String(DATABASE_DSN)
	parts := strings.Split(dsn, "?")
	path := parts[0]

	params := make(map[string]string)
	if len(parts) > 1 {
		for param := range strings.SplitSeq(parts[1], "&") {
			if kv := strings.Split(param, "="); len(kv) == 2 {
				params[kv[0]] = kv[1]
			}
		}
	}

	for k, v := range defaultSQLiteParams {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}

	var queryParams []string
	for k, v := range params {
		queryParams = append(queryParams, k+"="+v)
	}
	sort.Strings(queryParams)

	if len(queryParams) > 0 {
		return path + "?" + strings.Join(queryParams, "&")
	}
	return path
}

func (c *Config) Global() GlobalConfig {
	return GlobalConfig{
		StorageDir:        c.k.String(GLOBAL_STORAGE_DIR),
		TaskRetentionDays: c.k.Int(GLOBAL_TASK_RETENTION),
	}
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"voidkat.toml",
		"config.toml",
		filepath.Join(xdgConfig, "voidkat", "config.toml"),
		"/etc/voidkat/config.toml",
	}
}
