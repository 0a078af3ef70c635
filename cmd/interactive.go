package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/tui"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the interactive TUI",
	Long:  `Launch the menu to check the next buses, open the live board, download the timetable or change settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.RunTUI()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
