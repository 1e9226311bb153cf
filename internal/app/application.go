package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voidkat/voidkat/internal/app/di"
	"github.com/voidkat/voidkat/internal/commands/auth"
	chatcmd "github.com/voidkat/voidkat/internal/commands/chat"
	"github.com/voidkat/voidkat/internal/commands/fetch"
	"github.com/voidkat/voidkat/internal/config"
	"github.com/voidkat/voidkat/internal/core"
	"github.com/voidkat/voidkat/internal/logger"
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	bot    *core.Bot
	di     *di.Container
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		cancel()
		return nil, err
	}

	di, err := di.NewContainer(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	di.Logger.Info("DI Container created")

	botInstance, err := core.NewBot(
		di.BotClient,
		di.Queue,
		di.Logger,
		di.DB,
		cfg,
	)
	if err != nil {
		di.Logger.Fatal(err)
	}
	di.Logger.Info("Bot instance created")

	app := &Application{
		cfg:    cfg,
		bot:    botInstance,
		di:     di,
		Logger: di.Logger,
		ctx:    ctx,
		cancel: cancel,
	}

	app.registerCommands()

	return app, nil
}

func (a *Application) Start() error {
	a.Logger.Info("Starting application")
	a.StartTaskCleaner()
	return a.bot.Start(a.ctx)
}

func (a *Application) registerCommands() {
	if a.cfg.GetCommandConfig(chatcmd.CommandName).Enabled {
		a.bot.RegisterCommand(chatcmd.New(a.di))
		a.bot.RegisterCommand(chatcmd.NewShared(a.di))
		a.bot.RegisterCommand(chatcmd.NewClear(a.di))
		a.bot.RegisterCommand(chatcmd.NewSharedClear(a.di))
		a.bot.RegisterCommand(chatcmd.NewView(a.di))
		a.bot.RegisterCommand(chatcmd.NewSharedView(a.di))
		a.bot.RegisterCommand(chatcmd.NewStatus(a.di))
	}
	if a.cfg.GetCommandConfig(fetch.CommandName).Enabled {
		a.bot.RegisterCommand(fetch.New(a.di))
		a.bot.RegisterCommand(fetch.NewRename(a.di))
		a.bot.RegisterCommand(fetch.NewRemove(a.di))
	}
	a.bot.RegisterCommand(auth.New(a.di))
	a.bot.RegisterCommand(auth.NewBan(a.di))
}

func (a *Application) WaitForShutdown() {
	<-a.ctx.Done()
	a.cancel()
	a.Logger.Info("Application stopped")
}

// StartTaskCleaner periodically drops finished queue tasks older than
// the retention window.
func (a *Application) StartTaskCleaner() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := a.di.DB.PurgeOldTasks(a.cfg.Global().TaskRetentionDays); err != nil {
				a.Logger.Error("Failed to purge old tasks: ", err)
			}
		}
	}()
}
