package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/board"
	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/tui"
)

var nextCmd = &cobra.Command{
	Use:   "next [trip-id]",
	Short: "Show the next arrivals once",
	Long:  `Load today's timetable and print the upcoming arrivals of every trip, or of a single trip.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		asJSON, _ := cmd.Flags().GetBool("json")

		mode, err := board.ParseMode(modeFlag)
		if err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !asJSON && len(args) == 0 {
			return tui.RunNext(a, mode)
		}

		if _, err := a.Reload(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}

		now := time.Now()
		var rows []board.Row
		if len(args) == 1 {
			trip, ok := a.Manager.Trip(schedule.TripID(args[0]))
			if !ok {
				return fmt.Errorf("unknown trip %q", args[0])
			}
			rows = []board.Row{board.BuildRow(a.Manager, trip, now, mode, a.Config.Thresholds)}
		} else {
			rows = board.Build(a.Manager, now, mode, a.Config.Thresholds)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		fmt.Print(tui.RenderBoard(rows, mode))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)

	nextCmd.Flags().StringP("mode", "m", "detailed", "Display mode: preview or detailed")
	nextCmd.Flags().Bool("json", false, "Print the board as JSON")
}
