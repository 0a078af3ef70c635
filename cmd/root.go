package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/app"
	"github.com/pthomas-44/nextbus/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "nextbus",
	Short: "Next bus arrivals for your usual stops",
	Long: `nextbus shows how long until the next buses of a few configured trips leave
your stop, from a daily GTFS timetable, a script or a GTFS database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
}

// loadApp reads the config and wires the board.
func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}
