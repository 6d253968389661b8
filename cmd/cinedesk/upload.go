package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/notification"
	"github.com/cinedesk/cinedesk/internal/upload"
)

var errUploadFailed = errors.New("upload failed")

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload [file.csv]",
		Short: "Import movies from a CSV file",
		Long: "Upload a CSV file to the catalog. With a file argument the upload runs once and exits;\n" +
			"without one, a form asks for file paths until Esc is pressed.",
		Example: `  cinedesk upload movies.csv
  cinedesk upload`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runUpload(path)
		},
	}
}

// runUpload wires the upload controller to the Bubble Tea upload form.
func runUpload(path string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, nil)
	client := initCatalog(cfg, logger)
	ctrl := upload.New(client, notification.NewLog(logger), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []tea.ProgramOption{}
	if path == "" {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newUploadModel(ctx, ctrl, path), opts...)

	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run upload: %w", err)
	}

	um, ok := m.(uploadModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if um.oneShot && um.state.Message.Kind != upload.MessageSuccess {
		return errUploadFailed
	}
	return nil
}

// uploadDoneMsg carries the settled upload back to the TUI.
type uploadDoneMsg struct {
	result upload.Result
}

// uploadModel is the Bubble Tea model for the upload form.
type uploadModel struct {
	ctx     context.Context
	ctrl    *upload.Controller
	input   textinput.Model
	spinner spinner.Model
	state   upload.State
	oneShot bool // path given on the command line: submit once and exit
	path    string
}

func newUploadModel(ctx context.Context, ctrl *upload.Controller, path string) uploadModel {
	ti := textinput.New()
	ti.Placeholder = "path/to/movies.csv"
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	m := uploadModel{
		ctx:     ctx,
		ctrl:    ctrl,
		input:   ti,
		spinner: s,
		oneShot: path != "",
		path:    path,
	}
	if m.oneShot {
		m.state = ctrl.Begin()
	}
	return m
}

func (m uploadModel) Init() tea.Cmd {
	if m.oneShot {
		return tea.Batch(m.spinner.Tick, m.submit(m.path))
	}
	return textinput.Blink
}

func (m uploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.state.Loading || m.oneShot {
				return m, nil
			}
			path := strings.TrimSpace(m.input.Value())
			m.state = m.ctrl.Begin()
			return m, tea.Batch(m.spinner.Tick, m.submit(path))
		}

	case uploadDoneMsg:
		m.state = m.ctrl.State()
		if msg.result.ResetForm {
			m.input.SetValue("")
		}
		if m.oneShot {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.state.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.oneShot || m.state.Loading {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m uploadModel) View() string {
	var sb strings.Builder
	if !m.oneShot {
		sb.WriteString(styleHeader.Render("Upload CSV"))
		sb.WriteString("\n")
		sb.WriteString(m.input.View())
		sb.WriteString("\n\n")
	}

	if m.state.Loading {
		sb.WriteString(m.spinner.View() + styleDim.Render(" Uploading..."))
	} else if text := renderMessage(m.state.Message); text != "" {
		sb.WriteString(text)
	}
	sb.WriteString("\n")

	if !m.oneShot {
		sb.WriteString(styleDim.Render("enter: upload · esc: quit"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// submit returns a command that runs the upload asynchronously.
func (m uploadModel) submit(path string) tea.Cmd {
	return func() tea.Msg {
		return uploadDoneMsg{result: m.ctrl.Submit(m.ctx, path)}
	}
}
