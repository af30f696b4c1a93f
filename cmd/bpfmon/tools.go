package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"bpfmon/internal/preflight"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("42"))
	warnStyle   = cellStyle.Foreground(lipgloss.Color("214"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("204"))
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the configured tools and their command lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "LABEL", "COMMAND").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, tool := range catalog.Tools {
				argv, err := catalog.Command(tool.ID)
				if err != nil {
					return err
				}
				t.Row(tool.ID, tool.Label, strings.Join(argv, " "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host can run the configured tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := preflight.Run(catalog)

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("CHECK", "TARGET", "STATUS", "DETAIL").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					if col != 2 {
						return cellStyle
					}
					switch report.Checks[row].Status {
					case preflight.StatusOK:
						return okStyle
					case preflight.StatusWarn:
						return warnStyle
					default:
						return failStyle
					}
				})
			for _, c := range report.Checks {
				t.Row(c.Name, c.Target, string(c.Status), c.Detail)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())

			if !report.OK {
				return fmt.Errorf("preflight failed")
			}
			return nil
		},
	}
}
