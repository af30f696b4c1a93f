package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bpfmon/internal/service"
	"bpfmon/internal/tui"
)

func newTUICmd() *cobra.Command {
	var opts tui.Options
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Watch tool output in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alt screen owns the terminal; logs go to a file or nowhere.
			logrus.SetOutput(io.Discard)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logrus.SetOutput(f)
			}

			if opts.InitialTool != "" {
				if _, ok := catalog.Lookup(opts.InitialTool); !ok {
					if t, ok := catalog.LookupLabel(opts.InitialTool); ok {
						opts.InitialTool = t.ID
					}
				}
			}

			mon := service.NewMonitor(catalog, logrus.StandardLogger())
			err := tui.Run(cmd.Context(), mon, opts)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if serr := mon.Shutdown(ctx); err == nil {
				err = serr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.InitialTool, "tool", "", "Tool id or label selected at startup")
	cmd.Flags().BoolVar(&opts.AutoStart, "start", false, "Start the selected tool immediately")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the UI is running")
	return cmd
}
