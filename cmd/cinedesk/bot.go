package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/config"
	"github.com/cinedesk/cinedesk/internal/frontend/telegram"
	"github.com/cinedesk/cinedesk/internal/httpclient"
	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/notification"
	"github.com/cinedesk/cinedesk/internal/render"
	"github.com/cinedesk/cinedesk/internal/upload"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Browse the movie catalog and import CSV files from Telegram.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot()
		},
	}
}

// runBot initializes the catalog controllers and starts the Telegram bot.
func runBot() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or CINEDESK_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger := setupLogger(cfg, os.Stderr)

	bot, err := initTelegramBot(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("telegram bot starting")
	return bot.Start(ctx)
}

// initTelegramBot creates a Telegram bot with per-chat list and upload controllers.
func initTelegramBot(cfg *config.Config, logger *slog.Logger) (*telegram.Bot, error) {
	client := initCatalog(cfg, logger)
	notifier := notification.NewLog(logger)

	deps := telegram.Deps{
		NewLister:   func() *listing.Lister { return listing.New(client, notifier, logger) },
		NewUploader: func() *upload.Controller { return upload.New(client, notifier, logger) },
		Formatter:   render.NewFormatter(cfg.UI.DateLayout),
		Files:       httpclient.New(httpConfig(cfg), logger),
	}

	return telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		deps,
		logger,
	)
}
