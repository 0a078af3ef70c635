package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/tui"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the remaining buses of today to an ICS file",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return tui.ExportICS(a, output)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "nextbus.ics", "Output file path")
}
