package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live board refreshing in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return tui.RunWatch(a)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
