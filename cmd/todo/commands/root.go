// Package commands implements the todo CLI over a local SQLite store.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the todo CLI
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Personal task tracker",
		Long:          "Track tasks with priorities, tags, due dates, and recurring schedules from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("db", "", "Path to the SQLite database (default: $TODO_DB or ~/.todo/tasks.db)")
	cmd.PersistentFlags().StringP("output", "o", "table", "Output format: table, json, or yaml")

	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewGetCmd())
	cmd.AddCommand(NewUpdateCmd())
	cmd.AddCommand(NewDoneCmd())
	cmd.AddCommand(NewRmCmd())
	cmd.AddCommand(NewAdvanceCmd())

	return cmd
}
