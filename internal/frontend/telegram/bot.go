package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/httpclient"
	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/render"
	"github.com/cinedesk/cinedesk/internal/upload"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps wires the bot to the catalog controllers.
type Deps struct {
	NewLister   func() *listing.Lister   // one per chat
	NewUploader func() *upload.Controller // one per chat
	Formatter   *render.Formatter
	Files       *httpclient.Client // downloads uploaded documents
}

// Bot is the Telegram frontend for the movie catalog.
// It implements the core.Frontend interface.
type Bot struct {
	api      botAPI
	username string
	sessions *sessionManager
	format   *render.Formatter
	files    *httpclient.Client
	logger   *slog.Logger
}

// compile-time check.
var _ core.Frontend = (*Bot)(nil)

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, deps Deps, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	b := newBot(api, allowedUserIDs, deps, logger)
	b.username = api.Self.UserName
	return b, nil
}

func newBot(api botAPI, allowedUserIDs []int64, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Formatter == nil {
		deps.Formatter = render.NewFormatter("")
	}
	if deps.Files == nil {
		deps.Files = httpclient.New(httpclient.DefaultConfig(), logger)
	}
	return &Bot{
		api:      api,
		sessions: newSessionManager(allowedUserIDs, deps.NewLister, deps.NewUploader),
		format:   deps.Formatter,
		files:    deps.Files,
		logger:   logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("telegram bot started",
		slog.String("username", b.username),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
