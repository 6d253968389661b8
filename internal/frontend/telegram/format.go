package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/render"
)

const (
	pageCallbackPrefix = "pg:" // pagination callback data, e.g. "pg:3"
	noopCallback       = "noop"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// formatPage renders a movie page as MarkdownV2.
func formatPage(f *render.Formatter, q core.Query, page *core.Page) string {
	var sb strings.Builder

	header := fmt.Sprintf("Movies · page %d of %d · %d total", page.CurrentPage, max(page.NumPages, 1), page.Count)
	sb.WriteString(FormatBold(header))
	sb.WriteByte('\n')
	if filters := describeFilters(q); filters != "" {
		sb.WriteString(FormatItalic(filters))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	if len(page.Results) == 0 {
		sb.WriteString(EscapeMdV2("No movies found."))
		return sb.String()
	}

	offset := (max(page.CurrentPage, 1) - 1) * render.MoviesPerPage
	for i, m := range page.Results {
		row := f.Row(m)
		title := row[0]
		if row[1] != "" && row[1] != row[0] {
			title += " (" + row[1] + ")"
		}
		fmt.Fprintf(&sb, "%s %s\n", EscapeMdV2(strconv.Itoa(offset+i+1)+"."), FormatBold(title))
		detail := fmt.Sprintf("   📅 %s · 💰 %s / %s · ⭐ %s", row[2], row[3], row[4], row[5])
		sb.WriteString(EscapeMdV2(detail))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

// describeFilters lists the active filters, empty when none are set.
func describeFilters(q core.Query) string {
	var parts []string
	if s := strings.TrimSpace(q.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	if s := strings.TrimSpace(q.Ordering); s != "" {
		parts = append(parts, "sort "+s)
	}
	if s := strings.TrimSpace(q.ReleaseDate); s != "" {
		parts = append(parts, "released "+s)
	}
	if s := strings.TrimSpace(q.Language); s != "" {
		parts = append(parts, "language "+s)
	}
	return strings.Join(parts, ", ")
}

// paginationKeyboard builds a one-row inline keyboard from the pagination
// buttons. Disabled and active buttons carry a no-op callback.
func paginationKeyboard(totalPages, currentPage int) *tgbotapi.InlineKeyboardMarkup {
	if totalPages <= 1 {
		return nil
	}

	buttons := render.Pagination(totalPages, currentPage)
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		label := btn.Label
		data := pageCallbackPrefix + strconv.Itoa(btn.Page)
		switch {
		case btn.Active:
			label = "· " + label + " ·"
			data = noopCallback
		case btn.Disabled:
			label = " "
			data = noopCallback
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

// parsePageCallback extracts the target page from "pg:<n>" callback data.
func parsePageCallback(data string) (int, bool) {
	rest, ok := strings.CutPrefix(data, pageCallbackPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
