package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/pthomas-44/nextbus/pkg/app"
	"github.com/pthomas-44/nextbus/pkg/board"
	"github.com/pthomas-44/nextbus/pkg/config"
	"github.com/pthomas-44/nextbus/pkg/exporter"
	"github.com/pthomas-44/nextbus/pkg/feed"
)

// defaultAccent is the TCL red.
const defaultAccent = "#ec1c24"

var (
	// These act as fallbacks initially, but are replaced by GetTheme()
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// GetTheme loads the user's saved accent color and constructs the UI theme.
func GetTheme() *huh.Theme {
	cfg, err := config.Load()
	baseColor := defaultAccent

	if err == nil && cfg != nil && cfg.AccentColor != "" {
		baseColor = cfg.AccentColor
	}

	// Update the global lipgloss accent so plain CLI output also receives the color
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor)).Bold(true)

	return GetCustomTheme(baseColor)
}

// GetCustomTheme returns a new huh.Theme built around the given lipgloss color.
func GetCustomTheme(baseColor string) *huh.Theme {
	t := huh.ThemeCharm()
	p := lipgloss.Color(baseColor)

	t.Focused.Title = t.Focused.Title.Foreground(p).Bold(true)
	t.Focused.Base = t.Focused.Base.Border(lipgloss.RoundedBorder()).BorderForeground(p).Padding(0, 1)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(p)
	t.Focused.MultiSelectSelector = t.Focused.MultiSelectSelector.Foreground(p)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(p)
	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.Foreground(p)
	t.Focused.UnselectedPrefix = t.Focused.UnselectedPrefix.Foreground(lipgloss.AdaptiveColor{Light: "", Dark: "235"})
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(p)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(p)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(lipgloss.Color("0")).Background(p)

	// Softer borders for unfocused elements
	t.Blurred.Base = t.Blurred.Base.Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)

	return t
}

// RunTUI launches the main menu
func RunTUI() error {
	var action string

	initialForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("🚌 Next Buses", "next"),
					huh.NewOption("📺 Live Board", "watch"),
					huh.NewOption("⬇️ Download Today's Timetable", "fetch"),
					huh.NewOption("📅 Export Remaining Buses", "export"),
					huh.NewOption("⚙️ Settings", "config"),
				).
				Value(&action),
		),
	).WithTheme(GetTheme())

	if err := initialForm.Run(); err != nil {
		return err
	}

	if action == "config" {
		return RunConfigTUI()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch action {
	case "watch":
		return RunWatch(a)
	case "fetch":
		return RunFetch(a, true)
	case "export":
		return runExportTUI(a)
	}
	return RunNext(a, board.ModeDetailed)
}

// RunNext loads the schedule behind a spinner and prints the board once.
func RunNext(a *app.App, mode board.Mode) error {
	var err error
	_ = spinner.New().
		Title("Loading today's timetable...").
		Action(func() {
			_, err = a.Reload(context.Background())
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	fmt.Print(RenderBoard(board.Build(a.Manager, time.Now(), mode, a.Config.Thresholds), mode))
	return nil
}

// RunFetch downloads the GTFS feed behind a spinner.
func RunFetch(a *app.App, force bool) error {
	opts, err := a.FeedOptions(force)
	if err != nil {
		return err
	}

	var res feed.Result
	_ = spinner.New().
		Title(fmt.Sprintf("Downloading timetable to %s...", opts.Path)).
		Action(func() {
			res, err = a.FetchFeed(context.Background(), force)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	fmt.Println(accentStyle.Render("✅ " + res.String()))
	return nil
}

func runExportTUI(a *app.App) error {
	output := "nextbus.ics"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Where should the calendar be saved?").
				Value(&output),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	return ExportICS(a, output)
}

// ExportICS loads the schedule and writes the remaining buses of the day.
func ExportICS(a *app.App, output string) error {
	if err := RunNext(a, board.ModePreview); err != nil {
		return err
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	n, err := exporter.GenerateICS(a.Manager, time.Now(), file)
	if err != nil {
		return fmt.Errorf("failed to generate ICS: %w", err)
	}

	fmt.Printf("Successfully exported %d buses to %s\n", n, output)
	return nil
}
