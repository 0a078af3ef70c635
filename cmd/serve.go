package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pthomas-44/nextbus/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board as JSON over HTTP",
	Long: `Keep the timetable refreshed in the background and serve it on /board,
/trips and /trips/{id}/next, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.Config.ServeAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Ping(ctx); err != nil {
			return err
		}

		go func() {
			if err := a.Refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("refresher stopped", "err", err)
			}
		}()

		srv := &server.Server{
			Manager:    a.Manager,
			Thresholds: a.Config.Thresholds,
			Metrics:    a.Metrics.Handler(),
			Refresh:    a.Reload,
		}
		return server.Serve(ctx, addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (defaults to serve_addr from the config)")
}
