package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/pthomas-44/nextbus/pkg/app"
	"github.com/pthomas-44/nextbus/pkg/board"
	"github.com/pthomas-44/nextbus/pkg/source"
)

type tickMsg time.Time

type reloadMsg struct {
	report source.Report
	err    error
}

// WatchModel is the live board. It re-renders on every tick and reloads the
// schedule on demand.
type WatchModel struct {
	schedule   board.Schedule
	thresholds board.Thresholds
	interval   time.Duration
	reload     func(ctx context.Context) (source.Report, error)
	now        func() time.Time

	mode   board.Mode
	rows   []board.Row
	status string
	err    error
}

func NewWatchModel(s board.Schedule, th board.Thresholds, interval time.Duration, reload func(ctx context.Context) (source.Report, error)) WatchModel {
	m := WatchModel{
		schedule:   s,
		thresholds: th,
		interval:   interval,
		reload:     reload,
		now:        time.Now,
		mode:       board.ModeDetailed,
	}
	m.rebuild()
	return m
}

func (m *WatchModel) rebuild() {
	m.rows = board.Build(m.schedule, m.now(), m.mode, m.thresholds)
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) reloadCmd() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	reload := m.reload
	return func() tea.Msg {
		report, err := reload(context.Background())
		return reloadMsg{report: report, err: err}
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), m.tick())
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "d":
			if m.mode == board.ModeDetailed {
				m.mode = board.ModePreview
			} else {
				m.mode = board.ModeDetailed
			}
			m.rebuild()
		case "r":
			m.status = "reloading..."
			return m, m.reloadCmd()
		}
	case tickMsg:
		m.rebuild()
		return m, m.tick()
	case reloadMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("loaded %d buses at %s", msg.report.Buses, m.now().Format("15:04:05"))
		} else {
			m.status = ""
		}
		m.rebuild()
	}
	return m, nil
}

func (m WatchModel) View() string {
	s := accentStyle.Render("nextbus") + "  " + RenderPreview(m.rows) + "\n\n"
	if m.mode == board.ModeDetailed {
		s += RenderRows(m.rows) + "\n"
	}
	switch {
	case m.err != nil:
		s += errorStyle.Render("reload failed: "+m.err.Error()) + "\n"
	case m.status != "":
		s += dimStyle.Render(m.status) + "\n"
	}
	s += dimStyle.Render("r reload • d details • q quit") + "\n"
	return s
}

// RunWatch shows the live board until the user quits, refreshing the
// schedule in the background.
func RunWatch(a *app.App) error {
	// keep background logging from tearing the alt screen
	prev := log.Default()
	log.SetDefault(log.New(io.Discard))
	defer log.SetDefault(prev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Refresher.Run(ctx)

	model := NewWatchModel(a.Manager, a.Config.Thresholds, a.Config.RefreshInterval(), a.Reload)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
