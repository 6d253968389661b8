package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cinedesk/cinedesk/internal/catalog"
	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/upload"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	errorMsg        = "Could not load movies. Please try again."
	notCSVMsg       = "Please send a .csv file."
	uploadingMsg    = "Uploading…"
	badDateMsg      = "Dates look like 2010-07-16."

	helpMsg = `Browse the movie catalog.

/movies [text] - search titles (any plain text works too)
/sort [key] - sort by release_date, vote_average, budget or revenue, "-" for descending
/date [YYYY-MM-DD] - only movies released that day
/lang [code] - only movies in that original language
/clear - drop all filters

Send a .csv file to import movies.`
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, arg := splitCommand(text)
	s := b.sessions.get(chatID)
	q := s.lister.Query()

	switch cmd {
	case "/start", "/help":
		b.sendText(chatID, helpMsg)
		return
	case "/clear":
		b.sessions.reset(chatID)
		s = b.sessions.get(chatID)
		q = core.Query{}
	case "/movies":
		q.Search = arg
	case "/sort":
		if arg != "" && !slices.Contains(catalog.OrderingOptions(), arg) {
			b.sendText(chatID, "Unknown sort key. Options: "+strings.Join(catalog.OrderingOptions()[1:], ", "))
			return
		}
		q.Ordering = arg
	case "/date":
		if arg != "" {
			if _, err := time.Parse(time.DateOnly, arg); err != nil {
				b.sendText(chatID, badDateMsg)
				return
			}
		}
		q.ReleaseDate = arg
	case "/lang":
		q.Language = arg
	case "":
		q.Search = text
	default:
		b.sendText(chatID, helpMsg)
		return
	}

	// Any filter change starts again from the first page.
	q.Page = 1

	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator

	out := s.lister.Load(ctx, q)
	switch {
	case out.Stale:
		return
	case out.Err != nil:
		b.sendText(chatID, errorMsg)
		return
	}

	text = formatPage(b.format, s.lister.Query(), out.Page)
	b.sendMarkdown(chatID, text, paginationKeyboard(out.Page.NumPages, out.Page.CurrentPage))
}

// handleCallback processes pagination button presses.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	b.api.Request(tgbotapi.NewCallback(cq.ID, "")) //nolint:errcheck // best-effort ack

	if !b.sessions.isAllowed(userID) || cq.Message == nil {
		return
	}
	page, ok := parsePageCallback(cq.Data)
	if !ok {
		return
	}

	chatID := cq.Message.Chat.ID
	s := b.sessions.get(chatID)

	out := s.lister.GoTo(ctx, page)
	switch {
	case out.Stale:
		return
	case out.Err != nil:
		b.sendText(chatID, errorMsg)
		return
	}

	text := formatPage(b.format, s.lister.Query(), out.Page)
	kb := paginationKeyboard(out.Page.NumPages, out.Page.CurrentPage)
	if kb == nil {
		kb = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cq.Message.MessageID, text, *kb)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		b.logger.Warn("failed to edit movie page",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// handleDocument imports an uploaded CSV file into the catalog.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	doc := msg.Document

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".csv") {
		b.sendText(chatID, notCSVMsg)
		return
	}

	b.logger.Info("received csv document",
		slog.Int64("user_id", userID),
		slog.String("file", doc.FileName),
		slog.Int("size", doc.FileSize),
	)

	s := b.sessions.get(chatID)
	s.uploader.Begin()
	b.sendText(chatID, uploadingMsg)

	res := b.uploadDocument(ctx, s.uploader, doc)
	prefix := "✅ "
	if res.Message.Kind == upload.MessageError {
		prefix = "❌ "
	}
	b.sendText(chatID, prefix+res.Message.Text)
}

func (b *Bot) uploadDocument(ctx context.Context, uploader *upload.Controller, doc *tgbotapi.Document) upload.Result {
	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return uploader.Resolve(ctx, nil, fmt.Errorf("resolve telegram file: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return uploader.Resolve(ctx, nil, fmt.Errorf("create download request: %w", err))
	}
	resp, err := b.files.Do(req)
	if err != nil {
		return uploader.Resolve(ctx, nil, fmt.Errorf("download telegram file: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uploader.Resolve(ctx, nil, fmt.Errorf("download telegram file: HTTP %d", resp.StatusCode))
	}
	return uploader.SubmitReader(ctx, doc.FileName, resp.Body)
}

// sendMarkdown sends MarkdownV2 text, falling back to plain text.
func (b *Bot) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, unescapeMdV2(text))
		if kb != nil {
			plain.ReplyMarkup = kb
		}
		if _, err := b.api.Send(plain); err != nil {
			b.logger.Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// splitCommand splits "/cmd@bot args" into "/cmd" and "args".
// Text that is not a command yields an empty command.
func splitCommand(text string) (cmd, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, arg, _ = strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

// unescapeMdV2 strips the escaping and emphasis added for MarkdownV2.
func unescapeMdV2(s string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*' || r == '_':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
