package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pthomas-44/nextbus/pkg/config"
)

// RunConfigTUI launches the interactive experience for managing configurations
func RunConfigTUI() error {
	for {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		var action string

		initialForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Configuration Settings").
					Options(
						huh.NewOption("Set Accent Color (Theme)", "theme"),
						huh.NewOption("Set Urgency Thresholds", "thresholds"),
						huh.NewOption("Set Schedule Source", "source"),
						huh.NewOption("Set Arrivals Shown Per Trip", "arrivals"),
						huh.NewOption("View Current Config", "view"),
						huh.NewOption("Back to Main Menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(GetTheme())

		if err := initialForm.Run(); err != nil {
			return err
		}

		switch action {
		case "back":
			return nil
		case "theme":
			err = runSetThemeTUI(cfg)
		case "thresholds":
			err = runSetThresholdsTUI(cfg)
		case "source":
			err = runSetSourceTUI(cfg)
		case "arrivals":
			err = runSetArrivalsTUI(cfg)
		case "view":
			var full *config.AppConfig
			if full, err = config.Load(); err == nil {
				fmt.Print(DescribeConfig(full))
			}
		}

		if err != nil {
			return err
		}
	}
}

// DescribeConfig renders the settings a user is likely to check.
func DescribeConfig(cfg *config.AppConfig) string {
	var b strings.Builder
	b.WriteString(accentStyle.Render("\n--- Current Configuration (~/.nextbus.json) ---") + "\n")
	fmt.Fprintf(&b, "Source: %s\n", cfg.Source)
	switch cfg.Source {
	case config.SourceJSON:
		fmt.Fprintf(&b, "Schedule File: %s\n", cfg.SchedulePath)
	case config.SourceScript:
		fmt.Fprintf(&b, "Script: %s\n", cfg.ScriptCommand)
	case config.SourcePostgres:
		b.WriteString("Database: configured\n")
	}
	fmt.Fprintf(&b, "Critical Below: %d min\n", cfg.Thresholds.CriticalThresholdSeconds/60)
	fmt.Fprintf(&b, "Warning Below: %d min\n", cfg.Thresholds.WarningThresholdSeconds/60)
	fmt.Fprintf(&b, "Refresh Every: %ds\n", cfg.RefreshIntervalSeconds)
	fmt.Fprintf(&b, "Accent Color: %s\n", cfg.AccentColor)
	b.WriteString("Trips:\n")
	for _, t := range cfg.Trips {
		fmt.Fprintf(&b, "  %s %s (%d arrivals)\n", tagStyle.Render(t.Tag), t.Name, t.ArrivalsToShow)
	}
	b.WriteString("\n")
	return b.String()
}

func validateMinutes(str string) error {
	n, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of minutes")
	}
	return nil
}

// applyThresholds sets both thresholds in minutes and validates the whole
// config, so the caller reports whatever actually blocks the save.
func applyThresholds(cfg *config.AppConfig, criticalMin, warningMin int) error {
	cfg.Thresholds.CriticalThresholdSeconds = criticalMin * 60
	cfg.Thresholds.WarningThresholdSeconds = warningMin * 60
	return cfg.Validate()
}

func runSetThresholdsTUI(cfg *config.AppConfig) error {
	critical := strconv.Itoa(cfg.Thresholds.CriticalThresholdSeconds / 60)
	warning := strconv.Itoa(cfg.Thresholds.WarningThresholdSeconds / 60)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Critical (red) up to how many minutes?").
				Value(&critical).
				Validate(validateMinutes),
			huh.NewInput().
				Title("Warning (yellow) up to how many minutes?").
				Value(&warning).
				Validate(validateMinutes),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	c, _ := strconv.Atoi(strings.TrimSpace(critical))
	w, _ := strconv.Atoi(strings.TrimSpace(warning))
	if err := applyThresholds(cfg, c, w); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return nil
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Thresholds saved: %d / %d min\n", c, w)))
	return nil
}

func runSetSourceTUI(cfg *config.AppConfig) error {
	kind := cfg.Source

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the timetable come from?").
				Options(
					huh.NewOption("GTFS feed, filtered to a JSON file", config.SourceJSON),
					huh.NewOption("Output of a script", config.SourceScript),
					huh.NewOption("GTFS PostgreSQL database", config.SourcePostgres),
				).
				Value(&kind),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	var title, placeholder string
	var target *string
	switch kind {
	case config.SourceJSON:
		title, placeholder, target = "Schedule file path", "~/goinfre/stop_times.json", &cfg.SchedulePath
	case config.SourceScript:
		title, placeholder, target = "Command printing \"TRIP_ID HH:MM:SS\" lines", "nextbus-times --today", &cfg.ScriptCommand
	default:
		title, placeholder, target = "Database URL", "postgres://user@localhost/gtfs", &cfg.DatabaseURL
	}

	value := *target
	inputForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(&value).
				Validate(func(str string) error {
					if strings.TrimSpace(str) == "" {
						return fmt.Errorf("this value is required")
					}
					return nil
				}),
		),
	).WithTheme(GetTheme())

	if err := inputForm.Run(); err != nil {
		return err
	}

	cfg.Source = kind
	*target = strings.TrimSpace(value)
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Source set to %s\n", kind)))
	return nil
}

func runSetArrivalsTUI(cfg *config.AppConfig) error {
	var idx int
	options := make([]huh.Option[int], len(cfg.Trips))
	for i, t := range cfg.Trips {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%d)", t.Name, t.ArrivalsToShow), i)
	}

	count := 3
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which trip?").
				Options(options...).
				Value(&idx),
			huh.NewSelect[int]().
				Title("How many arrivals should it show?").
				Options(
					huh.NewOption("1", 1),
					huh.NewOption("2", 2),
					huh.NewOption("3", 3),
					huh.NewOption("4", 4),
					huh.NewOption("5", 5),
				).
				Value(&count),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Trips[idx].ArrivalsToShow = count
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ %s now shows %d arrivals\n", cfg.Trips[idx].Name, count)))
	return nil
}

func colorBlock(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("██")
}

// IsHexColor reports whether str looks like "#RRGGBB".
func IsHexColor(str string) bool {
	if len(str) != 7 || !strings.HasPrefix(str, "#") {
		return false
	}
	_, err := strconv.ParseUint(str[1:], 16, 32)
	return err == nil
}

func runSetThemeTUI(cfg *config.AppConfig) error {
	var input string

	inputForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose an Accent Color for nextbus").
				Description("Select a preset or choose Custom to enter your own Hex.").
				Options(
					huh.NewOption(fmt.Sprintf("%s TCL Red", colorBlock(defaultAccent)), defaultAccent),
					huh.NewOption(fmt.Sprintf("%s Tomato", colorBlock("#ff6347")), "#ff6347"),
					huh.NewOption(fmt.Sprintf("%s Gold", colorBlock("#ffd700")), "#ffd700"),
					huh.NewOption(fmt.Sprintf("%s Light Green", colorBlock("#90ee90")), "#90ee90"),
					huh.NewOption("✨ Custom Hex Code", "custom"),
				).
				Value(&input),
		),
	).WithTheme(GetTheme())

	if err := inputForm.Run(); err != nil {
		return err
	}

	if input == "custom" {
		var hexInput string
		hexForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter a Hex Color Code").
					Description("Include the `#` symbol. Example: #FF00FF").
					Placeholder("#").
					Value(&hexInput).
					Validate(func(str string) error {
						if !IsHexColor(str) {
							return fmt.Errorf("must be a valid 6-character hex code starting with #")
						}
						return nil
					}),
			),
		).WithTheme(GetTheme())

		if err := hexForm.Run(); err != nil {
			return err
		}
		cfg.AccentColor = hexInput
	} else {
		cfg.AccentColor = input
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render("\n✅ The theme color is now saved.\n"))
	return nil
}
