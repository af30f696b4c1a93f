package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bpfmon/internal/config"
)

var (
	cfg        = config.LoadConfig()
	configPath string
	catalog    *config.Catalog
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bpfmon",
		Short:         "Run bcc/eBPF tracing tools and watch their output",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)

			c, err := config.LoadCatalog(configPath)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				logrus.WithField("path", configPath).Debug("No tool catalog found, using built-in tools")
			}
			catalog = c
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "bpfmon.yaml", "Path to tool catalog file")
	root.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newTUICmd(), newToolsCmd(), newDoctorCmd())
	return root
}
