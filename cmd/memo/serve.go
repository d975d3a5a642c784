package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"example.com/tempmemo/internal/expiry"
	"example.com/tempmemo/internal/httpapi"
)

var (
	serveAddr    string
	serveNoSweep bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the memo HTTP API and sweep expired memos in the background",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			addr := a.cfg.HTTPAddr
			if serveAddr != "" {
				addr = serveAddr
			}

			sched := expiry.NewScheduler(a.coord, a.cfg.SweepInterval, a.svc.Now, a.logger)
			if !serveNoSweep {
				if err := sched.Start(ctx); err != nil {
					return err
				}
			}
			defer sched.Stop()

			if err := a.settings.Watch(ctx); err != nil {
				a.logger.Warn("settings file will not be watched", "error", err)
			}

			handler := httpapi.NewHandlers(a.svc, a.settings, sched, a.logger).
				Observe(a.repo, a.coord, sched).
				Routes()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("memo API listening", "addr", addr, "sweep_interval", a.cfg.SweepInterval)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("memo API stopped")
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveNoSweep, "no-sweep", false, "Do not start periodic sweeping until the list view is shown")
	rootCmd.AddCommand(serveCmd)
}
