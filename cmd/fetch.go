package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/tui"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download today's timetable from the GTFS feed",
	Long: `Download the operator's GTFS archive, keep the stop_times of the configured trips
and stops, and save them to the schedule file. Skipped when the file was already
written today, unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return tui.RunFetch(a, force)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolP("force", "f", false, "Download even if the schedule file is fresh")
}
