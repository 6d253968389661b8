package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/catalog"
	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/debounce"
	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/notification"
	"github.com/cinedesk/cinedesk/internal/render"
)

// newBrowseCmd returns the "browse" subcommand for the interactive movie list.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the movie catalog interactively",
		Long: "Search, filter, sort and page through the movie catalog.\n" +
			"Tab moves between fields, Enter applies filters, PgUp/PgDn change page, Esc quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse wires the list controller to the Bubble Tea browse TUI.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, nil)
	client := initCatalog(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var p *tea.Program

	// Notices are delivered from a goroutine: Send blocks while Update runs.
	status := notification.Func(func(_ context.Context, n core.Notice) {
		go p.Send(noticeMsg{notice: n})
	})
	surfaceLists := cfg.UI.SurfaceListErrors
	notifier := notification.Multi{
		notification.NewLog(logger),
		notification.Filter(status, func(n core.Notice) bool {
			return n.Level == core.LevelError && (n.Source != listing.Source || surfaceLists)
		}),
	}

	search := debounce.New(cfg.UI.SearchDebounce, func(text string) {
		p.Send(searchSettledMsg{search: text})
	})
	defer search.Stop()

	lister := listing.New(client, notifier, logger)
	model := newBrowseModel(ctx, lister, search, render.NewFormatter(cfg.UI.DateLayout))
	p = tea.NewProgram(model, tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browse: %w", err)
	}
	return nil
}

// pageLoadedMsg carries a list response back to the TUI.
type pageLoadedMsg struct {
	ticket listing.Ticket
	page   *core.Page
	err    error
}

// searchSettledMsg is sent once typing in the search box has paused.
type searchSettledMsg struct {
	search string
}

// noticeMsg carries a controller notice to the status line.
type noticeMsg struct {
	notice core.Notice
}

// Focusable form elements, in tab order.
const (
	focusSearch = iota
	focusSort
	focusReleaseDate
	focusLanguage
	focusTable
	focusPages
	focusCount
)

// searchDebouncer is satisfied by *debounce.Debouncer[string].
type searchDebouncer interface {
	Trigger(v string)
	Stop() bool
}

// browseModel is the Bubble Tea model for the movie list.
type browseModel struct {
	ctx    context.Context
	lister *listing.Lister
	search searchDebouncer
	format *render.Formatter

	searchInput   textinput.Model
	dateInput     textinput.Model
	languageInput textinput.Model
	sortOptions   []string
	sortIdx       int
	focus         int

	table   table.Model
	spinner spinner.Model
	page    *core.Page
	buttons []render.Button
	cursor  int // selected button on the pagination strip
	loading bool
	status  string
	width   int
}

// newBrowseModel creates a browseModel with empty filters.
func newBrowseModel(ctx context.Context, l *listing.Lister, search searchDebouncer, f *render.Formatter) browseModel {
	si := textinput.New()
	si.Placeholder = "title or original title"
	si.CharLimit = 200
	si.Width = 30
	si.Focus()

	di := textinput.New()
	di.Placeholder = "YYYY-MM-DD"
	di.CharLimit = 10
	di.Width = 10

	li := textinput.New()
	li.Placeholder = "en"
	li.CharLimit = 8
	li.Width = 4

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	t := table.New(
		table.WithColumns(tableColumns(100)),
		table.WithHeight(render.MoviesPerPage+1),
		table.WithFocused(false),
	)

	return browseModel{
		ctx:           ctx,
		lister:        l,
		search:        search,
		format:        f,
		searchInput:   si,
		dateInput:     di,
		languageInput: li,
		sortOptions:   catalog.OrderingOptions(),
		table:         t,
		spinner:       s,
		buttons:       render.Pagination(0, 1),
		loading:       true,
	}
}

// tableColumns sizes the results columns for the terminal width.
func tableColumns(width int) []table.Column {
	const fixed = 12 + 16 + 16 + 7
	titleWidth := max((width-fixed-14)/2, 12)
	return []table.Column{
		{Title: render.Columns[0], Width: titleWidth},
		{Title: render.Columns[1], Width: titleWidth},
		{Title: render.Columns[2], Width: 12},
		{Title: render.Columns[3], Width: 16},
		{Title: render.Columns[4], Width: 16},
		{Title: render.Columns[5], Width: 7},
	}
}

// Init loads the first page.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetch(m.formQuery(1)))
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetColumns(tableColumns(msg.Width))
		m.table.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchSettledMsg:
		return m.startFetch(1)

	case pageLoadedMsg:
		m.handlePage(msg)
		return m, nil

	case noticeMsg:
		m.status = msg.notice.Text
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// handleKey dispatches key events.
func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.search.Stop()
		return m, tea.Quit
	case "tab":
		return m.moveFocus(1)
	case "shift+tab":
		return m.moveFocus(-1)
	case "pgup":
		return m.goToPage(targetPage(m.buttons, render.ButtonPrev))
	case "pgdown":
		return m.goToPage(targetPage(m.buttons, render.ButtonNext))
	}

	switch m.focus {
	case focusSort:
		return m.handleSortKey(msg)
	case focusTable:
		switch msg.String() {
		case "left", "h":
			return m.goToPage(targetPage(m.buttons, render.ButtonPrev))
		case "right", "l":
			return m.goToPage(targetPage(m.buttons, render.ButtonNext))
		}
		if page := shownPage(m.buttons, msg.String()); page > 0 {
			return m.goToPage(page)
		}
		return m.updateFocused(msg)
	case focusPages:
		return m.handlePagesKey(msg)
	}

	if msg.Type == tea.KeyEnter {
		// The filter button: apply everything, starting over at page 1.
		m.search.Stop()
		return m.startFetch(1)
	}

	before := m.searchInput.Value()
	model, cmd := m.updateFocused(msg)
	bm := model.(browseModel)
	if m.focus == focusSearch && bm.searchInput.Value() != before {
		bm.search.Trigger(bm.searchInput.Value())
	}
	return bm, cmd
}

// handleSortKey cycles the sort select; each change reloads page 1.
func (m browseModel) handleSortKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.sortOptions)
	switch msg.String() {
	case "left", "h", "up", "k":
		m.sortIdx = (m.sortIdx - 1 + n) % n
	case "right", "l", "down", "j", " ":
		m.sortIdx = (m.sortIdx + 1) % n
	case "enter":
	default:
		return m, nil
	}
	return m.startFetch(1)
}

// handlePagesKey moves the cursor along the pagination strip and follows
// the selected button on enter. Digits jump to a page shown in the strip.
func (m browseModel) handlePagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.cursor = stepCursor(m.buttons, m.cursor, -1)
		return m, nil
	case "right", "l":
		m.cursor = stepCursor(m.buttons, m.cursor, 1)
		return m, nil
	case "enter", " ":
		if m.cursor < 0 || m.cursor >= len(m.buttons) {
			return m, nil
		}
		b := m.buttons[m.cursor]
		if b.Disabled || b.Active {
			return m, nil
		}
		return m.goToPage(b.Page)
	}
	return m.goToPage(shownPage(m.buttons, msg.String()))
}

// moveFocus changes the focused element. Leaving the release date or
// language field with an uncommitted value applies it.
func (m browseModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	leaving := m.focus
	m.focus = (m.focus + delta + focusCount) % focusCount

	m.searchInput.Blur()
	m.dateInput.Blur()
	m.languageInput.Blur()
	m.table.Blur()

	var cmds []tea.Cmd
	switch m.focus {
	case focusSearch:
		cmds = append(cmds, m.searchInput.Focus())
	case focusReleaseDate:
		cmds = append(cmds, m.dateInput.Focus())
	case focusLanguage:
		cmds = append(cmds, m.languageInput.Focus())
	case focusTable:
		m.table.Focus()
	}

	committed := m.lister.Query()
	changed := (leaving == focusReleaseDate && strings.TrimSpace(m.dateInput.Value()) != committed.ReleaseDate) ||
		(leaving == focusLanguage && strings.TrimSpace(m.languageInput.Value()) != committed.Language)
	if changed {
		model, cmd := m.startFetch(1)
		m = model.(browseModel)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// updateFocused forwards a message to the focused widget.
func (m browseModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusReleaseDate:
		m.dateInput, cmd = m.dateInput.Update(msg)
	case focusLanguage:
		m.languageInput, cmd = m.languageInput.Update(msg)
	case focusTable:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// goToPage loads page keeping the applied filters. Zero means no-op.
func (m browseModel) goToPage(page int) (tea.Model, tea.Cmd) {
	if page < 1 {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch(m.lister.Query().WithPage(page)))
}

// startFetch reads the form and loads page.
func (m browseModel) startFetch(page int) (tea.Model, tea.Cmd) {
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch(m.formQuery(page)))
}

// formQuery builds a query from the current form values.
func (m browseModel) formQuery(page int) core.Query {
	return core.Query{
		Search:      strings.TrimSpace(m.searchInput.Value()),
		Ordering:    m.sortOptions[m.sortIdx],
		ReleaseDate: strings.TrimSpace(m.dateInput.Value()),
		Language:    strings.TrimSpace(m.languageInput.Value()),
		Page:        page,
	}
}

// fetch issues a list request. The ticket is stamped now so that any
// response already in flight becomes stale.
func (m browseModel) fetch(q core.Query) tea.Cmd {
	t := m.lister.Begin(q)
	return func() tea.Msg {
		page, err := m.lister.Fetch(m.ctx, t)
		return pageLoadedMsg{ticket: t, page: page, err: err}
	}
}

// handlePage applies the latest response; older ones are dropped.
// A failed request leaves the table as it was.
func (m *browseModel) handlePage(msg pageLoadedMsg) {
	out := m.lister.Complete(m.ctx, msg.ticket, msg.page, msg.err)
	if out.Stale {
		return
	}
	m.loading = false
	if out.Err != nil {
		return
	}

	m.status = ""
	m.page = out.Page
	rows := make([]table.Row, 0, len(out.Page.Results))
	for _, r := range m.format.Rows(out.Page.Results) {
		rows = append(rows, table.Row(r))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
	m.buttons = render.Pagination(out.Page.NumPages, out.Page.CurrentPage)
	m.cursor = activeIndex(m.buttons)
}

// View renders the filters, results table, pagination strip and status line.
func (m browseModel) View() string {
	var sb strings.Builder

	title := "CineDesk"
	if m.page != nil {
		title += fmt.Sprintf("  ·  %d movies", m.page.Count)
	}
	sb.WriteString(styleHeader.Render(title))
	sb.WriteString("\n")

	sb.WriteString(m.label(focusSearch, "Search") + m.searchInput.View() + "\n")
	sb.WriteString(m.label(focusSort, "Sort") + m.sortView() + "\n")
	sb.WriteString(m.label(focusReleaseDate, "Release date") + m.dateInput.View() + "   ")
	sb.WriteString(m.label(focusLanguage, "Language") + m.languageInput.View() + "\n\n")

	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	if m.page != nil && len(m.page.Results) == 0 {
		sb.WriteString(styleDim.Render("No movies found.") + "\n")
	}
	cursor := -1
	if m.focus == focusPages {
		cursor = m.cursor
	}
	sb.WriteString(m.label(focusPages, "Pages") + renderPagination(m.buttons, cursor))
	sb.WriteString("\n")

	switch {
	case m.loading:
		sb.WriteString(m.spinner.View() + styleDim.Render(" Loading..."))
	case m.status != "":
		sb.WriteString(styleError.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(styleDim.Render("tab: next field · enter: filter · ←/→ on sort: change · ←/→ enter on pages: pick page · pgup/pgdn: page · esc: quit"))
	return sb.String()
}

func (m browseModel) label(field int, text string) string {
	if m.focus == field {
		return styleFocused.Render(text + ": ")
	}
	return styleDim.Render(text + ": ")
}

func (m browseModel) sortView() string {
	opt := m.sortOptions[m.sortIdx]
	if opt == "" {
		opt = "none"
	}
	if m.focus == focusSort {
		return "< " + styleActivePage.Render(opt) + " >"
	}
	return opt
}
