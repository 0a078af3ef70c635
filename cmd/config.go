package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/config"
	"github.com/pthomas-44/nextbus/pkg/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nextbus configuration",
	Long:  "View or edit your local configuration settings (~/.nextbus.json).",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("show") {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(tui.DescribeConfig(cfg))
			return nil
		}

		// edits start from the file alone so env secrets are never saved
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		changed := false
		if flags.Changed("critical") {
			minutes, _ := flags.GetInt("critical")
			cfg.Thresholds.CriticalThresholdSeconds = minutes * 60
			changed = true
		}
		if flags.Changed("warning") {
			minutes, _ := flags.GetInt("warning")
			cfg.Thresholds.WarningThresholdSeconds = minutes * 60
			changed = true
		}
		if flags.Changed("source") {
			cfg.Source, _ = flags.GetString("source")
			changed = true
		}
		if flags.Changed("accent") {
			accent, _ := flags.GetString("accent")
			if !tui.IsHexColor(accent) {
				return fmt.Errorf("accent must be a hex color like #ec1c24, got %q", accent)
			}
			cfg.AccentColor = accent
			changed = true
		}

		// If no flags are given, launch the interactive TUI flow
		if !changed {
			return tui.RunConfigTUI()
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Println("✅ Configuration saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().Bool("show", false, "Print the current configuration")
	configCmd.Flags().Int("critical", 5, "Minutes up to which an arrival is critical")
	configCmd.Flags().Int("warning", 10, "Minutes up to which an arrival is a warning")
	configCmd.Flags().String("source", "json", "Schedule source: json, script or postgres")
	configCmd.Flags().String("accent", "", "Accent color as #RRGGBB")
}
