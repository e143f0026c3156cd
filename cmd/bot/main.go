// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"starostabot/internal/bot"
	"starostabot/internal/bot/handlers"
	"starostabot/internal/bot/tasks"
	"starostabot/internal/config"
	"starostabot/internal/database"
	"starostabot/internal/duel"
	"starostabot/internal/logger"
	"starostabot/internal/members"
	"starostabot/internal/reminder"
	"starostabot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// redis, bot, scheduler), handles graceful shutdown, and returns an exit code
// (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The member cache degrades to the database, so Redis being down is
		// not fatal at startup.
		log.Warn("Redis unavailable, member cache disabled until it recovers",
			"addr", cfg.Redis.Addr, "error", err)
	}

	clock := clockwork.NewRealClock()
	cache := members.NewCache(rdb, members.DefaultTTL, log)
	picker := members.NewPicker(cache, store, log)
	duels := duel.NewEngine(store, clock, cfg.Game.DuelDuration, log)

	// The default handler is bound before the client that the handlers need
	// exists, so route through an indirection filled in below.
	var router tgbot.HandlerFunc
	defaultHandler := func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		if router != nil {
			router(ctx, b, update)
		}
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(
			logger.Middleware(log),
			members.Tracker(cache, store, log),
		),
		tgbot.WithDefaultHandler(defaultHandler),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	tgClient := telegram.NewClient(tg)
	reminders := reminder.NewService(store, tgClient, clock, log)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Duels:     duels,
		Reminders: reminders,
		Picker:    picker,
		Moderator: tgClient,
		Clock:     clock,
	}
	router = handlers.NewRouter(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:    log,
		Config:    cfg,
		Reminders: reminders,
		Duels:     duels,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
