package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bpfmon/internal/api"
	"bpfmon/internal/service"
	"bpfmon/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cfg.Server.Address, "addr", cfg.Server.Address, "HTTP listen address")
	return cmd
}

func runServer(ctx context.Context) error {
	mon := service.NewMonitor(catalog, logrus.StandardLogger())

	router, err := api.NewRouter(mon, web.Templates(), web.Static())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.Server.Address).Info("Starting bpfmon web UI")
		logrus.Infof("Loaded %d tool(s)", len(catalog.Tools))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = mon.Shutdown(context.Background())
			return err
		}
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The tool goes first so no process group outlives us.
	if err := mon.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Failed to stop tool cleanly")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logrus.Info("Server exited gracefully")
	return nil
}
