package di

import (
	"net/http"

	"github.com/voidkat/voidkat/internal/ai"
	"github.com/voidkat/voidkat/internal/cache"
	"github.com/voidkat/voidkat/internal/chat"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/database"
	"github.com/voidkat/voidkat/internal/discord"
	"github.com/voidkat/voidkat/internal/logger"
	"github.com/voidkat/voidkat/internal/network"
	"github.com/voidkat/voidkat/internal/queue"
)

type Container struct {
	BotClient    discord.Client
	Logger       logger.Logger
	DB           database.Database
	Cache        cache.Cache
	Cfg          *config.Config
	Capabilities config.Capabilities
	Queue        *queue.Queue
	AI           ai.Provider
	Estimator    ai.TokenEstimator
	History      *chat.HistoryStore
	Resolver     *chat.Resolver
	Orchestrator *chat.Orchestrator
	HttpClient   *http.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	l := logger.NewLogrusLogger(cfg.Log())

	capabilities := cfg.Capabilities()
	if !capabilities.ChatEnabled {
		l.Warn("Chat disabled: no API key configured or chat command turned off")
	}

	db, err := database.NewSQLiteDB(cfg.GetDatabaseDSN(), l)
	if err != nil {
		return nil, err
	}

	c := cache.NewMemoryCache()
	q := queue.NewQueue(db, l)

	container := &Container{
		Logger:       l,
		DB:           db,
		Cache:        c,
		Cfg:          cfg,
		Capabilities: capabilities,
		Queue:        q,
	}

	httpCfg := network.NewDefaultHTTPClientConfig(cfg.HTTP())
	container.HttpClient = network.SetupHTTPClient(httpCfg, l)

	aiCfg := cfg.AI()
	completionClient := network.SetupHTTPClient(network.NewCompletionHTTPClientConfig(cfg.HTTP()), l)
	container.AI = ai.NewOpenAICompatibleClient(
		"openai-compatible",
		aiCfg.BaseURL,
		aiCfg.ChatURL,
		aiCfg.APIKey,
		l,
		completionClient,
	)
	container.Estimator = ai.NewTokenEstimator(aiCfg.Model, l)

	container.History = chat.NewHistoryStore(db, aiCfg.HistoryLimit, l)

	attachmentClient := network.SetupHTTPClient(network.NewAttachmentHTTPClientConfig(cfg.HTTP()), l)
	container.Resolver = chat.NewResolver(attachmentClient, c, cfg.Attachments(), l)

	assembler := chat.NewAssembler(
		container.Estimator,
		container.History,
		aiCfg.SystemPrompt,
		aiCfg.TokenBudget,
		l,
	)
	container.Orchestrator = chat.NewOrchestrator(
		container.AI,
		assembler,
		container.History,
		container.Resolver,
		aiCfg,
		l,
	)

	botClient, err := discord.NewBotClient(cfg.Discord().Token, l)
	if err != nil {
		l.WithError(err).Fatal("Discord client initialization error")
	}
	l.Info("Discord client initialized")
	container.BotClient = botClient

	return container, nil
}
