package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Erio-Harrison/nem-price-bot/internal/bot"
	"github.com/Erio-Harrison/nem-price-bot/internal/config"
	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/engine"
	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
	"github.com/Erio-Harrison/nem-price-bot/internal/nemweb"
	"github.com/Erio-Harrison/nem-price-bot/internal/telegram"
	"github.com/Erio-Harrison/nem-price-bot/internal/weather"
)

var version = "dev"

func main() {
	logger.Banner(version)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("CONFIG", fmt.Sprintf("%v", err))
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()
	logger.Success("DB", fmt.Sprintf("Database ready at %s", cfg.DatabaseURL))

	tg := telegram.NewClient(cfg.TeloxideToken)
	fetcher := nemweb.NewClient()
	wx := weather.NewClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := engine.NewScheduler(database, tg, fetcher, wx, cfg.AdminChatID)
	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("SCHED", fmt.Sprintf("Scheduler stopped: %v", err))
			stop()
		}
	}()

	commands := bot.New(database, tg)
	tg.Listen(ctx, commands.HandleMessage, commands.HandleCallback)
	logger.Info("MAIN", "Shutting down")
}
