package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dirmetrics/src/controller"
	"dirmetrics/src/util"
)

func (h *Handler) watchCmd() *cobra.Command {
	var (
		flags    scanFlags
		debounce time.Duration
		serve    bool
		listen   string
		manual   bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Keep metrics current while files change",
		Long: "Watches one or more directories and re-analyzes changed files after a quiet period. " +
			"With --serve, results are published over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			filters, mode, err := flags.resolve(h.cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				h.cfg.Watch.Debounce = debounce
			}
			if manual {
				h.cfg.Watch.AutoAnalyze = false
			}
			if serve {
				h.cfg.Server.Enabled = true
			}
			if listen != "" {
				h.cfg.Server.Listen = listen
			}

			watchCtrl, err := controller.NewWatchController(h.cfg, newConsoleNotifier(os.Stderr), filters, !flags.noSnap)
			if err != nil {
				return fmt.Errorf("starting watch: %w", err)
			}

			err = watchCtrl.Start(controller.WatchRequest{
				Directories: args,
				ScanMode:    mode,
				IsProject:   flags.project,
				Filters:     filters,
				UseSnapshot: !flags.noSnap,
			})
			if err != nil {
				watchCtrl.Close(context.Background())
				return err
			}

			if addr := watchCtrl.ServerAddr(); addr != "" {
				fmt.Fprintf(os.Stderr, "Serving results on http://%s/api/v1/views\n", addr)
			}
			fmt.Fprintf(os.Stderr, "Watching %d director(ies), press Ctrl+C to stop\n", len(args))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			util.Info("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return watchCtrl.Close(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before re-analysis (default from config)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Publish results over HTTP")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&manual, "no-auto-analyze", false, "Track changes without re-analyzing")

	return cmd
}
